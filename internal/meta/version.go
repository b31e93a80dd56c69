// Package meta holds the build information.
package meta

import (
	"fmt"
)

const (
	Name = "nbwatchdog"
)

var (
	// Version is the semantic version of the application.
	// This value is injected at build time via ldflags.
	Version = "HEAD"

	// Commit is the git commit hash.
	// This value is injected at build time via ldflags.
	Commit = "UNKNOWN"
)

// UserAgent is the User-Agent header of the service probes.
func UserAgent() string {
	return fmt.Sprintf("%s/%s health check", Name, Version)
}

// VersionString is the human readable version, like "nbwatchdog version 1.2.3 (abcdef)".
func VersionString() string {
	return fmt.Sprintf("%s version %s (%s)", Name, Version, Commit)
}
