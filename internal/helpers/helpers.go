// Package helpers aggregates the template helper sets (formatters, country
// helpers, front page helpers, lookups and site helpers) into one FuncMap.
package helpers

import (
	"fmt"
	"html/template"
	"maps"
	"sort"
)

// Options binds the site-specific helpers to one build.
type Options struct {
	APIRootURL string
	AccessURL  string
	CSSDir     string
	JSDir      string
	ImagesDir  string
	// AssetURL rewrites a site-relative asset path, e.g. to add a cache-busting query.
	// Nil leaves paths unchanged.
	AssetURL func(path string) string
}

// FuncMap merges every helper set. A helper name defined by two sets panics,
// since templates would otherwise see whichever set happened to load last.
func FuncMap(opts Options) template.FuncMap {
	return merge(
		Formatters(),
		CountryHelpers(opts.ImagesDir),
		FrontPageHelpers(),
		Lookups(),
		SiteHelpers(opts),
	)
}

func merge(sets ...template.FuncMap) template.FuncMap {
	out := template.FuncMap{}
	for _, set := range sets {
		for name := range set {
			if _, dup := out[name]; dup {
				panic(fmt.Sprintf("helpers: %q defined twice", name))
			}
		}
		maps.Copy(out, set)
	}
	return out
}

// Names returns the sorted helper names, for diagnostics.
func Names(fm template.FuncMap) []string {
	names := make([]string, 0, len(fm))
	for n := range fm {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
