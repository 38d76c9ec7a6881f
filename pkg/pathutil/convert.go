// Package pathutil converts between absolute and relative paths and
// normalizes path separators for glob matching, the same conversion layer
// kept at the boundary between internal (absolute) path
// handling and user-facing output.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to one relative to rootDir. Falls
// back to the original path if conversion fails, the path already lies
// outside rootDir, or either input is empty.
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}
	return relPath
}

// ToSlash normalizes path separators to forward slashes so glob patterns
// written with "/" match consistently across platforms.
func ToSlash(path string) string {
	return filepath.ToSlash(path)
}
