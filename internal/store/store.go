package store

import (
	"context"
	"fmt"
	"strconv"
)

// Collection names in the content database.
const (
	Countries      = "countries"
	CountryStats   = "country-stats"
	Projects       = "projects"
	Documents      = "documents"
	FundedProjects = "funded-projects"
)

// Collections lists every collection the site reads.
var Collections = []string{Countries, CountryStats, Projects, Documents, FundedProjects}

// Store is a read-only view over content collections.
type Store interface {
	// Find returns all documents in collection matching f, in store order.
	Find(ctx context.Context, collection string, f Filter) ([]Document, error)
	// FindOne returns the first matching document, or nil with a nil error when nothing matches.
	FindOne(ctx context.Context, collection string, f Filter) (Document, error)
	Close() error
}

// Document is a single content record.
type Document map[string]any

// Get returns the raw value of field.
func (d Document) Get(field string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[field]
	return v, ok
}

// Lookup resolves a dotted path such as "region.code" through nested maps.
func (d Document) Lookup(path string) (any, bool) { return lookup(d, path) }

// String returns field rendered as a string, or "" when absent or null.
func (d Document) String(field string) string {
	v, ok := d.Get(field)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns a numeric field as float64.
func (d Document) Float(field string) (float64, bool) {
	v, ok := d.Get(field)
	if !ok {
		return 0, false
	}
	return AsFloat(v)
}

// AsFloat converts numeric values, and strings holding numbers, to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
