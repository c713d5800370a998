// Package version carries build metadata stamped in with ldflags:
//
//	go build -ldflags "-X github.com/dfid/devtracker-site/internal/version.Version=v1.4.0" ./cmd/devtracker
package version

import "fmt"

// Version is the release of the site builder.
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the line printed by --version.
func String() string {
	return fmt.Sprintf("devtracker %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
