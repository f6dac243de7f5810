package marker

import (
	"fmt"

	"namesync/internal/messages"
	"namesync/internal/project"
	"namesync/internal/status"
)

// Controller keeps the name-mismatch marker of a project in line with validation results.
// Store failures are reported and swallowed; marker maintenance is best-effort.
type Controller struct {
	store    Store
	messages messages.Messages
	reporter status.Reporter
}

// NewController creates a Controller.
func NewController(store Store, msgs messages.Messages, reporter status.Reporter) *Controller {
	if reporter == nil {
		reporter = status.Discard{}
	}
	return &Controller{store: store, messages: msgs, reporter: reporter}
}

// EnsureMarkerReflects creates the marker when hasMismatch is true and none exists, and
// deletes it when hasMismatch is false and one exists. Closed projects are left alone.
func (c *Controller) EnsureMarkerReflects(p project.Project, hasMismatch bool) {
	if hasMismatch {
		if _, err := c.Create(p); err != nil {
			c.reporter.Report(err, c.messages.Get(messages.MarkerCreationFailed))
		}
		return
	}
	if _, err := c.Delete(p); err != nil {
		c.reporter.Report(err, c.messages.Get(messages.MarkerDeletionFailed))
	}
}

// Create attaches the marker to p unless it already has one.
// It returns true if a marker was created.
func (c *Controller) Create(p project.Project) (bool, error) {
	if !p.Open {
		return false, nil
	}
	existing, err := c.Find(p)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	folder, _ := p.FolderName()
	m := Marker{
		Type:         TypeProblem,
		Message:      c.messages.Get(messages.MarkerMessage, folder, p.Name),
		Location:     p.Location,
		Severity:     SeverityError,
		UserEditable: false,
		Attributes: map[string]string{
			AttrProblemName: AttrValueProblemName,
		},
	}
	if _, err := c.store.Create(p.ResourcePath(), m); err != nil {
		return false, fmt.Errorf("create marker on %s: %w", p.ResourcePath(), err)
	}
	return true, nil
}

// Delete removes the marker from p if present. It returns true if a marker was deleted.
func (c *Controller) Delete(p project.Project) (bool, error) {
	m, err := c.Find(p)
	if err != nil || m == nil {
		return false, err
	}
	if err := c.store.Delete(p.ResourcePath(), m.ID); err != nil {
		return false, fmt.Errorf("delete marker on %s: %w", p.ResourcePath(), err)
	}
	return true, nil
}

// Find returns the first name-mismatch marker directly on p's resource, or nil.
// Closed projects never report a marker.
func (c *Controller) Find(p project.Project) (*Marker, error) {
	if !p.Open {
		return nil, nil
	}
	markers, err := c.store.Find(p.ResourcePath(), TypeProblem)
	if err != nil {
		return nil, fmt.Errorf("find markers on %s: %w", p.ResourcePath(), err)
	}
	for i := range markers {
		if markers[i].IsNameProblem() {
			return &markers[i], nil
		}
	}
	return nil, nil
}

// Exists reports whether p carries the marker. Lookup failures count as absent.
func (c *Controller) Exists(p project.Project) bool {
	m, err := c.Find(p)
	return err == nil && m != nil
}
