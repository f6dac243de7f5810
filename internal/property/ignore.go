package property

import (
	"strconv"

	"namesync/internal/project"
	"namesync/internal/status"
)

// IgnoreKey is the local name of the ignore-renaming property.
const IgnoreKey = "RENAME_IGNORING_KEY"

// IgnoreRegistry stores whether a project's name mismatch should be ignored.
//
// The flag is scoped by the project's folder name rather than its declared name, so a
// decision follows the on-disk folder it was made for. A project moved to a different
// folder starts without a decision. All methods treat closed projects as having no flag.
type IgnoreRegistry struct {
	store    Store
	reporter status.Reporter
}

// NewIgnoreRegistry creates a registry over store. Read and write failures go to reporter.
func NewIgnoreRegistry(store Store, reporter status.Reporter) *IgnoreRegistry {
	if reporter == nil {
		reporter = status.Discard{}
	}
	return &IgnoreRegistry{store: store, reporter: reporter}
}

// KeyFor returns the property key used for p.
// Projects without a resolvable location fall back to their declared name.
func KeyFor(p project.Project) QualifiedName {
	scope, ok := p.FolderName()
	if !ok {
		scope = p.Name
	}
	return QualifiedName{Qualifier: scope, Local: IgnoreKey}
}

// Value returns the stored flag and whether one exists.
func (r *IgnoreRegistry) Value(p project.Project) (value bool, exists bool) {
	if !p.Open {
		return false, false
	}
	raw, ok, err := r.store.Get(KeyFor(p))
	if err != nil {
		r.reporter.Report(err, "failed to read the ignore flag of project "+p.Name)
		return false, false
	}
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		// Any unparseable value counts as an explicit "not ignored" decision.
		return false, true
	}
	return parsed, true
}

// IsIgnored reports whether a flag exists for p and is true.
func (r *IgnoreRegistry) IsIgnored(p project.Project) bool {
	value, exists := r.Value(p)
	return exists && value
}

// HasDecision reports whether a flag of either value exists for p.
func (r *IgnoreRegistry) HasDecision(p project.Project) bool {
	_, exists := r.Value(p)
	return exists
}

// SetIgnored persists value for p under its current folder name.
// It is a no-op for closed projects.
func (r *IgnoreRegistry) SetIgnored(p project.Project, value bool) {
	if !p.Open {
		return
	}
	if err := r.store.Set(KeyFor(p), strconv.FormatBool(value)); err != nil {
		r.reporter.Report(err, "failed to save the ignore flag of project "+p.Name)
	}
}
