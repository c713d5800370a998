// Package store provides read access to the content document store.
//
// Content records (countries, projects, funded projects, documents) are
// opaque documents. Three drivers implement Store:
//
//   - mongo: the production CMS database (MongoDB)
//   - sqlite: a snapshot file, written by `devtracker snapshot`
//   - fixtures: a directory of <collection>.json arrays, used by tests and
//     local development
//
// Filters support equality and inequality with MongoDB semantics, and every
// driver agrees on them:
//
//   - Ne matches documents where the field is absent.
//   - Values compare only within their JSON type: 1, true and "1" differ.
//   - An array field matches when one of its elements equals the value.
//   - Objects never equal a filter value.
package store
