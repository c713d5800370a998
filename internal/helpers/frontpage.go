package helpers

import (
	"html/template"
	"sort"

	"github.com/dfid/devtracker-site/internal/store"
)

// FrontPageHelpers returns helpers for ranking and totalling document lists.
func FrontPageHelpers() template.FuncMap {
	return template.FuncMap{
		"topByField": TopByField,
		"sumField":   SumField,
		"field":      Field,
	}
}

// TopByField returns up to n documents ordered by a numeric field, largest
// first. Documents without a numeric value sort last; ties keep input order.
func TopByField(docs any, field string, n int) []store.Document {
	list := documents(docs)
	sorted := make([]store.Document, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].Float(field)
		b, bok := sorted[j].Float(field)
		if aok != bok {
			return aok
		}
		return a > b
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// SumField totals a numeric field, skipping documents where it is missing.
func SumField(docs any, field string) float64 {
	var total float64
	for _, d := range documents(docs) {
		if v, ok := d.Float(field); ok {
			total += v
		}
	}
	return total
}

// Field reads a dotted field from a document-like value.
func Field(doc any, name string) any {
	var d store.Document
	switch t := doc.(type) {
	case store.Document:
		d = t
	case map[string]any:
		d = t
	default:
		return nil
	}
	v, _ := d.Lookup(name)
	return v
}

func documents(v any) []store.Document {
	switch list := v.(type) {
	case []store.Document:
		return list
	case []map[string]any:
		out := make([]store.Document, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	case []any:
		out := make([]store.Document, 0, len(list))
		for _, item := range list {
			switch m := item.(type) {
			case store.Document:
				out = append(out, m)
			case map[string]any:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
