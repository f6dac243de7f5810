package monitor

import (
	"context"

	"namesync/internal/project"
)

// EventKind identifies a workspace resource event.
type EventKind int

const (
	// ProjectAdded is delivered for a project that now exists and was not known before.
	ProjectAdded EventKind = iota
	// ProjectRemoved is delivered for a project name that no longer exists.
	ProjectRemoved
)

func (k EventKind) String() string {
	switch k {
	case ProjectAdded:
		return "added"
	case ProjectRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one workspace resource change.
type Event struct {
	Kind    EventKind
	Project project.Project
}

// Listener receives events on the goroutine that delivers them.
type Listener func(ctx context.Context, e Event)

// EventSource delivers workspace resource events to subscribed listeners.
type EventSource interface {
	Subscribe(l Listener)
}
