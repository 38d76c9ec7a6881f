// Package version holds the build version, overridable via -ldflags.
package version

// Version is the dupescan release version. Overridden at build time with:
//
//	go build -ldflags "-X github.com/standardbeagle/dupescan/internal/version.Version=1.2.3"
var Version = "dev"
