package watcher

import (
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns returns the base-name patterns skipped while watching a workspace.
func DefaultIgnorePatterns() []string {
	return []string{
		".metadata", // workspace state, including namesync's own files
		".git",
		".*.tmp", // atomic write temp files
		"*.tmp",
		"*.swp",
		"*~",
	}
}

// FileFilter decides which paths are not worth an event.
type FileFilter struct {
	patterns []string
}

// NewFileFilter creates a FileFilter. Nil or empty patterns mean DefaultIgnorePatterns.
func NewFileFilter(patterns []string) *FileFilter {
	if len(patterns) == 0 {
		patterns = DefaultIgnorePatterns()
	}
	return &FileFilter{patterns: patterns}
}

// ShouldIgnore reports whether the base name of path matches an ignore pattern.
// Patterns use filepath.Match syntax. A pattern starting with "." and containing no
// wildcard also matches as a case-insensitive suffix, so ".bak" matches "x.BAK".
func (f *FileFilter) ShouldIgnore(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// Patterns returns a copy of the active patterns.
func (f *FileFilter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}
