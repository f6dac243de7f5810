// Package project describes the read-only view of a workspace project used by validation.
package project

import (
	"path/filepath"
	"strings"
)

// Project is a snapshot of a workspace project.
// Location is empty when the host cannot resolve the project to a local folder.
type Project struct {
	Name     string // Declared name, unique within the workspace
	Location string // Absolute filesystem location, or "" when unresolvable
	Open     bool
}

// FolderName returns the last path segment of the project's location.
// The second result is false when the location is unresolvable.
func (p Project) FolderName() (string, bool) {
	if p.Location == "" {
		return "", false
	}
	clean := filepath.Clean(p.Location)
	base := filepath.Base(clean)
	if base == "." || base == string(filepath.Separator) {
		return "", false
	}
	return base, true
}

// HasLocation reports whether the project's location can be resolved.
func (p Project) HasLocation() bool {
	_, ok := p.FolderName()
	return ok
}

// ResourcePath is the workspace path of the project resource, e.g. "/lib-core".
// Markers are attached to this path.
func (p Project) ResourcePath() string {
	return "/" + strings.TrimPrefix(p.Name, "/")
}

// Mismatched reports whether the declared name differs from the folder name.
// The comparison is exact; a project with an unresolvable location is never mismatched.
func (p Project) Mismatched() bool {
	folder, ok := p.FolderName()
	if !ok {
		return false
	}
	return p.Name != folder
}
