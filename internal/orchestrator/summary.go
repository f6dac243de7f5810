package orchestrator

import (
	"fmt"
	"time"

	"namesync/internal/monitor"
	"namesync/internal/watcher"
)

// RunSummary contains statistics from a watch session.
type RunSummary struct {
	Scan     *monitor.Summary // startup scan
	Watch    *watcher.Summary // events seen after the scan
	Duration time.Duration
}

// HasErrors returns true if the watcher hit filesystem errors.
func (s *RunSummary) HasErrors() bool {
	return s.Watch != nil && s.Watch.Errors > 0
}

// PrintSummary returns a one-line summary.
func (s *RunSummary) PrintSummary() string {
	var validated, flagged, added, removed int
	if s.Scan != nil {
		validated, flagged = s.Scan.Validated(), s.Scan.Flagged()
	}
	if s.Watch != nil {
		added, removed = s.Watch.Added, s.Watch.Removed
	}
	return fmt.Sprintf("Validated %d project(s) at startup (%d flagged); %d added, %d removed in %s",
		validated, flagged, added, removed, s.Duration.Round(time.Second))
}
