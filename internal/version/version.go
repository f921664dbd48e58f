// Package version reports the release the binary was built from.
//
// Release builds stamp Version and BuildDate with -ldflags -X; anything
// built without them falls back to the embedded VERSION file.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var embedded string

var (
	// Version is stamped at build time via ldflags
	Version = "dev"

	// BuildDate is stamped at build time via ldflags
	BuildDate = "unknown"
)

func init() {
	if Version == "" || Version == "dev" {
		Version = strings.TrimSpace(embedded)
	}
}

// GetVersion returns the release version string
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// GetFullVersion returns the version, with the build date appended when
// one was stamped in
func GetFullVersion() string {
	v := GetVersion()
	if BuildDate == "" || BuildDate == "unknown" {
		return v
	}
	return v + " (" + BuildDate + ")"
}
