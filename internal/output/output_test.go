package output

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"namesync/internal/journal"
	"namesync/internal/marker"
	"namesync/internal/monitor"
	"namesync/internal/project"
	"namesync/internal/validator"
)

func newBuffered(verbose, tty bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(Config{Verbose: verbose, Writer: &out, ErrWriter: &errOut, IsTTY: tty}), &out, &errOut
}

func TestVerboseOutputOnlyAppearsWhenEnabled(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		expectEmpty bool
	}{
		{"verbose disabled - no output", false, true},
		{"verbose enabled - has output", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, buf, _ := newBuffered(tt.verbose, false)
			out.Verbose("checking %s", "lib-core")

			if tt.expectEmpty && buf.Len() > 0 {
				t.Errorf("expected no output when verbose disabled, got: %q", buf.String())
			}
			if !tt.expectEmpty && buf.String() != "checking lib-core\n" {
				t.Errorf("unexpected verbose output %q", buf.String())
			}
		})
	}
}

func TestErrorOutputGoesToErrWriter(t *testing.T) {
	out, buf, errBuf := newBuffered(false, false)
	out.Error("Error: %s", "boom")

	if buf.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", buf.String())
	}
	if errBuf.String() != "Error: boom\n" {
		t.Errorf("unexpected stderr %q", errBuf.String())
	}
}

func TestNewWithNilWriters(t *testing.T) {
	out := New(Config{})
	if out.Writer() == nil || out.ErrWriter() == nil {
		t.Error("nil writers must default to stdout/stderr")
	}
}

func TestProgressIndicatorFormatAndLifecycle(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("progress format matches 'Validating project N/M...'", prop.ForAll(
		func(current, total int) bool {
			if current > total {
				current, total = total, current
			}

			out, buf, _ := newBuffered(false, true)
			out.StartProgress(total)
			out.UpdateProgress(current, "")

			pattern := regexp.MustCompile(`^\rValidating project \d+/\d+\.\.\.$`)
			if !pattern.MatchString(buf.String()) {
				return false
			}

			buf.Reset()
			out.EndProgress()
			return strings.HasPrefix(buf.String(), "\r") && strings.TrimSpace(buf.String()) == ""
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	properties.Property("progress suppressed when not a TTY or verbose", prop.ForAll(
		func(current int, tty, verbose bool) bool {
			if tty && !verbose {
				return true
			}
			out, buf, _ := newBuffered(verbose, tty)
			out.StartProgress(current + 1)
			out.UpdateProgress(current, "")
			out.EndProgress()
			return buf.Len() == 0
		},
		gen.IntRange(1, 1000),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestInfoClearsActiveProgress(t *testing.T) {
	out, buf, _ := newBuffered(false, true)
	out.StartProgress(3)
	out.UpdateProgress(1, "")
	out.Info("done")

	if !strings.HasSuffix(buf.String(), "\r"+strings.Repeat(" ", 60)+"\rdone\n") {
		t.Errorf("progress line not cleared before info: %q", buf.String())
	}
}

func TestScanSummary(t *testing.T) {
	summary := &monitor.Summary{
		Outcomes: map[validator.Outcome]int{
			validator.OutcomeConsistent: 2,
			validator.OutcomeFlagged:    1,
		},
		Projects: []monitor.ProjectResult{
			{Project: project.Project{Name: "a"}, Outcome: validator.OutcomeConsistent},
			{Project: project.Project{Name: "b"}, Outcome: validator.OutcomeConsistent},
			{Project: project.Project{Name: "c"}, Outcome: validator.OutcomeFlagged},
		},
		Duration: 1500 * time.Microsecond,
	}

	out, buf, _ := newBuffered(true, false)
	out.ScanSummary(summary)

	text := buf.String()
	for _, want := range []string{"Validated 3 project(s)", "consistent:", "flagged:", "c"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "suppressed:") {
		t.Errorf("zero counts must not be printed:\n%s", text)
	}
}

func TestProblems(t *testing.T) {
	out, buf, _ := newBuffered(false, false)
	out.Problems(nil)
	if !strings.Contains(buf.String(), "No project name problems") {
		t.Errorf("unexpected empty listing %q", buf.String())
	}

	buf.Reset()
	out.Problems([]marker.Marker{{
		Resource: "/lib-core",
		Severity: marker.SeverityError,
		Location: "/ws/lib-core-old",
		Message:  "Project name does not match folder name lib-core-old",
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "RESOURCE") || !strings.Contains(lines[1], "/lib-core") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestIgnoreTable(t *testing.T) {
	out, buf, _ := newBuffered(false, false)
	out.IgnoreTable([]IgnoreRow{
		{Project: "alpha", Folder: "alpha", Value: "", Open: true},
		{Project: "beta", Folder: "beta-old", Value: "true", Open: false},
	})
	text := buf.String()
	if !strings.Contains(text, "alpha") || !strings.Contains(text, "-") || !strings.Contains(text, "closed") {
		t.Errorf("unexpected table:\n%s", text)
	}
}

func TestHistory(t *testing.T) {
	out, buf, _ := newBuffered(false, false)
	out.History([]journal.Event{{
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EventType: journal.EventValidated,
		Project:   "lib-core",
		Outcome:   "flagged",
		Message:   "names differ",
	}, {
		Timestamp: time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC),
		EventType: journal.EventError,
		Project:   "lib-core",
		Error:     "disk full",
	}})
	text := buf.String()
	for _, want := range []string{"2026-03-01T10:00:00Z", "VALIDATED", "names differ", "disk full"} {
		if !strings.Contains(text, want) {
			t.Errorf("history missing %q:\n%s", want, text)
		}
	}
}
