// Package assets copies stylesheets, scripts and images into the output
// directory, minifying and fingerprinting them in build mode.
package assets
