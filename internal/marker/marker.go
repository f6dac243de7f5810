// Package marker manages problem markers attached to workspace resources.
package marker

import (
	"time"
)

// TypeProblem is the marker type shown in problem listings.
const TypeProblem = "problem"

// Severity levels, ordered like the host's problem views.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Distinguishing attribute of the name-mismatch marker.
const (
	AttrProblemName      = "MARKER_ATTRIBUTE_PROBLEM_NAME"
	AttrValueProblemName = "problemName"
)

// Marker is a problem annotation attached to a resource.
type Marker struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Resource     string            `json:"resource"`
	Message      string            `json:"message"`
	Location     string            `json:"location,omitempty"`
	Severity     Severity          `json:"severity"`
	UserEditable bool              `json:"userEditable"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Attribute returns the value of a custom attribute.
func (m Marker) Attribute(name string) (string, bool) {
	v, ok := m.Attributes[name]
	return v, ok
}

// IsNameProblem reports whether m is the project name mismatch marker.
func (m Marker) IsNameProblem() bool {
	_, ok := m.Attribute(AttrProblemName)
	return ok
}
