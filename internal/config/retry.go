package config

import "strings"

// RetryBackoffMode is how the wait between store connection attempts grows.
// Only opening the MongoDB store is retried; queries made during a build
// fail the build on the first error.
type RetryBackoffMode string

const (
	// RetryBackoffFixed waits store.retry.initial between every attempt.
	RetryBackoffFixed RetryBackoffMode = "fixed"
	// RetryBackoffLinear adds store.retry.initial per attempt. Default.
	RetryBackoffLinear RetryBackoffMode = "linear"
	// RetryBackoffExponential doubles the wait per attempt, capped at store.retry.max.
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffAliases = map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"constant":    RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}

// NormalizeRetryBackoff maps store.retry.mode input to a mode, returning empty
// string for unknown values.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffAliases[strings.ToLower(strings.TrimSpace(raw))]
}

// validRetryBackoff reports whether m is empty (use the default) or known.
func validRetryBackoff(m RetryBackoffMode) bool {
	return m == "" || NormalizeRetryBackoff(string(m)) == m
}
