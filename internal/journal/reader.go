package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Filter selects events when reading. Zero fields match everything.
type Filter struct {
	Project   string
	EventType EventType
	RunID     RunID
	Limit     int // Keep only the last Limit matches when > 0
}

func (f Filter) matches(e Event) bool {
	if f.Project != "" && e.Project != f.Project {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	return true
}

// ReadFile reads events from the journal at path. A missing file yields no events.
// Malformed lines are skipped and counted.
func ReadFile(path string, f Filter) ([]Event, int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()
	return Read(file, f)
}

// Read parses JSON Lines events from r.
func Read(r io.Reader, f Filter) ([]Event, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	skipped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Event
		if err := e.UnmarshalJSON([]byte(line)); err != nil {
			skipped++
			continue
		}
		if !f.matches(e) {
			continue
		}
		events = append(events, e)
		if f.Limit > 0 && len(events) > f.Limit {
			events = events[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, fmt.Errorf("read journal: %w", err)
	}
	return events, skipped, nil
}
