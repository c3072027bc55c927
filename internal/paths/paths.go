// Package paths resolves configured paths against a base directory and
// expands glob patterns. Both the requirement extractor and the test
// collector go through this package so that composite test keys built from
// link markers and from reports agree byte for byte.
package paths

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolve returns p as an absolute, cleaned path. Relative paths are joined
// onto baseDir; absolute paths pass through (cleaned).
func Resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, p))
	if err != nil {
		return filepath.Join(baseDir, p)
	}
	return abs
}

// Glob expands pattern (which may contain "**") to the matching files in
// lexical walk order. Directories are never returned. A pattern without
// glob metacharacters matches the named file when it exists.
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}

// ResolveGlob resolves pattern against baseDir and expands it.
func ResolveGlob(baseDir, pattern string) ([]string, error) {
	return Glob(Resolve(baseDir, pattern))
}

// ValidatePattern reports whether pattern is a syntactically valid glob.
func ValidatePattern(pattern string) bool {
	return doublestar.ValidatePattern(filepath.ToSlash(pattern))
}

// Rel returns path relative to baseDir for display, or path unchanged when
// no relative form exists.
func Rel(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
