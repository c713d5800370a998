package config

import "strings"

// StoreDriver names a document store backend.
type StoreDriver string

const (
	StoreDriverMongo    StoreDriver = "mongo"
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverFixtures StoreDriver = "fixtures"
)

// NormalizeStoreDriver maps user input to a known driver, returning empty string for unknown.
func NormalizeStoreDriver(raw string) StoreDriver {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mongo", "mongodb":
		return StoreDriverMongo
	case "sqlite", "sqlite3":
		return StoreDriverSQLite
	case "fixtures", "fixture", "json":
		return StoreDriverFixtures
	default:
		return ""
	}
}
