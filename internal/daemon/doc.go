// Package daemon rebuilds the site on a fixed interval.
//
// Builds run through gocron in singleton mode: a tick that arrives while a
// build is still running is skipped, never overlapped. An optional HTTP
// listener exposes /metrics, /healthz and /status.
package daemon
