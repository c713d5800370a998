// Package errors provides the classified error primitives used across the site builder.
//
// A ClassifiedError carries a category (config, store, render, assets, ...), a
// severity, a retry strategy and structured context. The CLI adapter maps
// categories to process exit codes.
//
// Example usage:
//
//	err := errors.StoreError("query failed").
//		WithContext("collection", "projects").
//		WithCause(originalErr).
//		Build()
package errors
