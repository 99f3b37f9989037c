// Package build provides version and build information for csrelease.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the one-line version string printed by --version.
func Info() string {
	return fmt.Sprintf("csrelease %s (commit %s, built %s)", Version, Commit, BuildDate)
}
