// Package preview serves a development build of the site, rebuilding it
// whenever the source directory changes and telling connected browsers to
// reload over server-sent events.
package preview
