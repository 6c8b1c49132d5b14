// Package version holds build-time identifying information, injected via
// -ldflags at build time. Defaults are used in development builds.
package version

import "runtime"

var (
	// Version is the semantic version, set via -ldflags.
	Version = "dev"
	// Commit is the git commit hash, set via -ldflags.
	Commit = "unknown"
	// BuildDate is the RFC3339 build timestamp, set via -ldflags.
	BuildDate = "unknown"
)

// Info returns the build metadata as a string map, for health payloads and
// Prometheus info gauges.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String renders the build metadata as a single line, for --version output.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ", " + runtime.Version() + ")"
}
