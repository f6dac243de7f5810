// Package journal keeps an append-only JSON Lines history of validation outcomes.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TimeFormat is the timestamp format of journal events.
const TimeFormat = time.RFC3339

// RunID identifies one process run. UUID v4.
type RunID string

// NewRunID generates a fresh RunID.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// EventType is the kind of journal event.
type EventType string

const (
	EventRunStart       EventType = "RUN_START"
	EventRunEnd         EventType = "RUN_END"
	EventValidated      EventType = "VALIDATED"
	EventPromptAnswered EventType = "PROMPT_ANSWERED"
	EventIgnoreChanged  EventType = "IGNORE_CHANGED"
	EventError          EventType = "ERROR"
)

// Event is one journal line.
type Event struct {
	Timestamp time.Time         `json:"-"`
	RunID     RunID             `json:"runId"`
	EventType EventType         `json:"eventType"`
	Project   string            `json:"project,omitempty"`
	Folder    string            `json:"folder,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type eventAlias Event

type eventJSON struct {
	Timestamp string `json:"timestamp"`
	eventAlias
}

// MarshalJSON writes the timestamp in TimeFormat.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Timestamp:  e.Timestamp.UTC().Format(TimeFormat),
		eventAlias: eventAlias(e),
	})
}

// UnmarshalJSON parses the TimeFormat timestamp.
func (e *Event) UnmarshalJSON(data []byte) error {
	var ej eventJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}
	t, err := time.Parse(TimeFormat, ej.Timestamp)
	if err != nil {
		return err
	}
	*e = Event(ej.eventAlias)
	e.Timestamp = t
	return nil
}
