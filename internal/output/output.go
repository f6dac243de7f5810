// Package output handles CLI output: verbose lines, a scan progress indicator and the
// tables printed by the problems, ignore and history commands.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"namesync/internal/journal"
	"namesync/internal/marker"
	"namesync/internal/monitor"
	"namesync/internal/validator"
)

// Config holds output configuration.
type Config struct {
	Verbose   bool      // Enable verbose output
	Writer    io.Writer // Output destination (default: os.Stdout)
	ErrWriter io.Writer // Error output destination (default: os.Stderr)
	IsTTY     bool      // Whether output is a terminal
}

// Output handles formatted output with verbose and progress support.
type Output struct {
	config          Config
	progressActive  bool
	progressTotal   int
	progressCurrent int
	progressMu      sync.Mutex
}

// New creates a new Output instance with the given configuration.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}
	return &Output{config: config}
}

// DefaultConfig returns a Config writing to stdout/stderr with TTY detection.
func DefaultConfig() Config {
	return Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		IsTTY:     term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Writer returns the standard output destination.
func (o *Output) Writer() io.Writer {
	return o.config.Writer
}

// ErrWriter returns the error output destination.
func (o *Output) ErrWriter() io.Writer {
	return o.config.ErrWriter
}

// Verbose prints a message only when verbose mode is enabled.
func (o *Output) Verbose(format string, args ...interface{}) {
	if !o.config.Verbose {
		return
	}
	o.println(o.config.Writer, format, args...)
}

// Info prints an informational message (always shown).
func (o *Output) Info(format string, args ...interface{}) {
	o.println(o.config.Writer, format, args...)
}

// Error prints an error message to the error writer.
func (o *Output) Error(format string, args ...interface{}) {
	o.println(o.config.ErrWriter, format, args...)
}

func (o *Output) println(w io.Writer, format string, args ...interface{}) {
	o.clearProgressLine()
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, msg)
}

// clearProgressLine clears the current progress line if active.
func (o *Output) clearProgressLine() {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if o.progressActive && o.config.IsTTY {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

// StartProgress begins a progress indicator. Progress is only drawn on a terminal
// and never in verbose mode.
func (o *Output) StartProgress(total int) {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.progressActive = true
	o.progressTotal = total
	o.progressCurrent = 0
}

// UpdateProgress redraws the indicator in place.
func (o *Output) UpdateProgress(current int, message string) {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressCurrent = current
	if message == "" {
		message = "Validating project"
	}
	fmt.Fprintf(o.config.Writer, "\r%s %d/%d...", message, current, o.progressTotal)
}

// EndProgress clears the progress indicator.
func (o *Output) EndProgress() {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressActive = false
	fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the output is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}

// ScanSummary prints the outcome counts of a scan. In verbose mode every project is
// listed first.
func (o *Output) ScanSummary(s *monitor.Summary) {
	if o.config.Verbose {
		for _, r := range s.Projects {
			o.Verbose("  %-30s %s", r.Project.Name, r.Outcome)
		}
	}
	o.Info("Validated %d project(s) in %s", s.Validated(), s.Duration.Round(time.Millisecond))
	for _, outcome := range []validator.Outcome{
		validator.OutcomeConsistent,
		validator.OutcomeFlagged,
		validator.OutcomeFlaggedAfterPrompt,
		validator.OutcomeSuppressed,
		validator.OutcomeIndeterminate,
	} {
		if n := s.Count(outcome); n > 0 {
			o.Info("  %-30s %d", outcome.String()+":", n)
		}
	}
}

// Problems prints name problem markers as a table.
func (o *Output) Problems(markers []marker.Marker) {
	o.clearProgressLine()
	if len(markers) == 0 {
		o.Info("No project name problems.")
		return
	}
	tw := tabwriter.NewWriter(o.config.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tSEVERITY\tLOCATION\tMESSAGE")
	for _, m := range markers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Resource, m.Severity, m.Location, m.Message)
	}
	tw.Flush()
}

// IgnoreRow is one line of the ignore listing.
type IgnoreRow struct {
	Project string
	Folder  string
	Value   string // "true", "false" or "" when undecided
	Open    bool
}

// IgnoreTable prints the ignore decision of each project.
func (o *Output) IgnoreTable(rows []IgnoreRow) {
	o.clearProgressLine()
	tw := tabwriter.NewWriter(o.config.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tFOLDER\tIGNORE\tSTATE")
	for _, r := range rows {
		value := r.Value
		if value == "" {
			value = "-"
		}
		state := "open"
		if !r.Open {
			state = "closed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Project, r.Folder, value, state)
	}
	tw.Flush()
}

// History prints journal events, oldest first.
func (o *Output) History(events []journal.Event) {
	o.clearProgressLine()
	if len(events) == 0 {
		o.Info("No history.")
		return
	}
	tw := tabwriter.NewWriter(o.config.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tPROJECT\tOUTCOME\tDETAIL")
	for _, e := range events {
		detail := e.Message
		if e.Error != "" {
			detail = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(journal.TimeFormat), e.EventType, e.Project, e.Outcome, detail)
	}
	tw.Flush()
}
