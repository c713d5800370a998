package helpers

import (
	"html/template"
	"path"
	"strings"
)

// SiteHelpers returns the helpers bound to one build: asset paths and API URLs.
func SiteHelpers(opts Options) template.FuncMap {
	resolve := opts.AssetURL
	if resolve == nil {
		resolve = func(p string) string { return p }
	}
	assetPath := func(dir, ext string) func(string) string {
		return func(name string) string {
			if isAbsoluteURL(name) {
				return name
			}
			if ext != "" && path.Ext(name) == "" {
				name += ext
			}
			return resolve("/" + path.Join(dir, strings.TrimPrefix(name, "/")))
		}
	}
	return template.FuncMap{
		"stylesheetPath": assetPath(opts.CSSDir, ".css"),
		"javascriptPath": assetPath(opts.JSDir, ".js"),
		"imagePath":      assetPath(opts.ImagesDir, ""),
		"apiURL":         func(p string) string { return JoinURL(opts.APIRootURL, p) },
		"accessURL":      func(p string) string { return JoinURL(opts.AccessURL, p) },
	}
}

// JoinURL appends p to root with exactly one slash between them.
func JoinURL(root, p string) string {
	root = strings.TrimRight(root, "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return root
	}
	return root + "/" + p
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//")
}
