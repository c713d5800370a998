// Package render turns source templates into HTML pages.
//
// Templates are html/template files under the source directory. Files whose
// base name starts with "_" are partials, available to every page by their
// slash-separated path relative to the source directory. A page body renders
// first; when a layout exists it then renders with the body as "content".
package render
