// Package status is the user-facing error channel for host operation failures.
//
// Failures are logged and shown, never propagated: callers report and carry on.
package status

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Reporter records a failed host operation together with a contextual message.
type Reporter interface {
	Report(err error, message string)
}

// LogReporter logs failures at error level and, when Show is set, prints them for the user.
type LogReporter struct {
	Logger *slog.Logger
	Show   io.Writer

	mu sync.Mutex
}

// NewLogReporter creates a LogReporter. A nil logger falls back to slog.Default().
func NewLogReporter(logger *slog.Logger, show io.Writer) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger, Show: show}
}

// Report logs err with message and echoes it to Show.
func (r *LogReporter) Report(err error, message string) {
	if message == "" && err != nil {
		message = err.Error()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(message, "err", err)

	if r.Show == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil && err.Error() != message {
		fmt.Fprintf(r.Show, "Error: %s: %v\n", message, err)
		return
	}
	fmt.Fprintf(r.Show, "Error: %s\n", message)
}

// Discard drops every report.
type Discard struct{}

// Report implements Reporter.
func (Discard) Report(error, string) {}

// Recorder keeps reports in memory; used by tests and the scan summary.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded failure.
type Entry struct {
	Err     error
	Message string
}

// Report implements Reporter.
func (r *Recorder) Report(err error, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Err: err, Message: message})
}

// Entries returns a copy of the recorded failures.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Tee fans a report out to several reporters.
type Tee []Reporter

// Report implements Reporter.
func (t Tee) Report(err error, message string) {
	for _, r := range t {
		if r != nil {
			r.Report(err, message)
		}
	}
}
