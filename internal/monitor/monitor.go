// Package monitor drives validation from workspace events: a scan of every open project
// at startup and a check of each project added afterwards.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"namesync/internal/messages"
	"namesync/internal/project"
	"namesync/internal/status"
	"namesync/internal/validator"
)

// Lister enumerates the projects of the workspace.
type Lister interface {
	Projects() ([]project.Project, error)
}

// Checker validates one project.
type Checker interface {
	Validate(ctx context.Context, p project.Project, allowPrompt bool) validator.Outcome
}

// MarkerPurger drops every marker of a resource.
type MarkerPurger interface {
	DeleteResource(resource string) (int, error)
}

// Summary counts validation outcomes of a scan.
type Summary struct {
	Outcomes map[validator.Outcome]int
	Projects []ProjectResult
	Duration time.Duration
}

// ProjectResult is the outcome for one project.
type ProjectResult struct {
	Project project.Project
	Outcome validator.Outcome
}

func newSummary() *Summary {
	return &Summary{Outcomes: make(map[validator.Outcome]int)}
}

func (s *Summary) add(p project.Project, o validator.Outcome) {
	s.Outcomes[o]++
	s.Projects = append(s.Projects, ProjectResult{Project: p, Outcome: o})
}

// Count returns the number of projects with outcome o.
func (s *Summary) Count(o validator.Outcome) int {
	return s.Outcomes[o]
}

// Validated returns the number of projects that were actually checked.
func (s *Summary) Validated() int {
	return len(s.Projects) - s.Outcomes[validator.OutcomeSkipped]
}

// Flagged returns the number of projects left with a mismatch marker.
func (s *Summary) Flagged() int {
	return s.Outcomes[validator.OutcomeFlagged] + s.Outcomes[validator.OutcomeFlaggedAfterPrompt]
}

// Options configures a Monitor.
type Options struct {
	Markers  MarkerPurger // nil disables marker cleanup on removal
	Reporter status.Reporter
	Messages messages.Messages // defaults to the built-in catalog
	Logger   *slog.Logger
	// Progress is called by ScanAll after each validated project.
	Progress func(current, total int)
}

// Monitor connects the checker to the workspace.
type Monitor struct {
	lister   Lister
	checker  Checker
	markers  MarkerPurger
	reporter status.Reporter
	messages messages.Messages
	logger   *slog.Logger
	progress func(current, total int)

	installOnce sync.Once
	installed   atomic.Bool
}

// New creates a Monitor.
func New(lister Lister, checker Checker, opts Options) *Monitor {
	if opts.Reporter == nil {
		opts.Reporter = status.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Messages == nil {
		opts.Messages, _ = messages.Load(messages.DefaultLanguage)
	}
	return &Monitor{
		lister:   lister,
		checker:  checker,
		markers:  opts.Markers,
		reporter: opts.Reporter,
		messages: opts.Messages,
		logger:   opts.Logger,
		progress: opts.Progress,
	}
}

// ScanAll validates every open project without prompting. Closed projects are not
// counted. A failure to enumerate projects is returned; per-project failures are
// handled inside the checker.
func (m *Monitor) ScanAll(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := newSummary()

	projects, err := m.lister.Projects()
	if err != nil {
		return summary, fmt.Errorf("listing projects: %w", err)
	}

	open := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if p.Open {
			open = append(open, p)
		}
	}

	for i, p := range open {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		summary.add(p, m.checker.Validate(ctx, p, false))
		if m.progress != nil {
			m.progress(i+1, len(open))
		}
	}

	summary.Duration = time.Since(start)
	m.logger.Info("startup scan finished",
		"projects", len(summary.Projects),
		"flagged", summary.Flagged(),
		"duration", summary.Duration)
	return summary, nil
}

// OnProjectAdded validates a newly added project and may prompt the user.
func (m *Monitor) OnProjectAdded(ctx context.Context, p project.Project) validator.Outcome {
	m.logger.Debug("project added", "project", p.Name, "location", p.Location)
	return m.checker.Validate(ctx, p, true)
}

// OnProjectRemoved drops the markers of a project that no longer exists.
func (m *Monitor) OnProjectRemoved(p project.Project) {
	m.logger.Debug("project removed", "project", p.Name)
	if m.markers == nil {
		return
	}
	if _, err := m.markers.DeleteResource(p.ResourcePath()); err != nil {
		m.reporter.Report(err, m.messages.Get(messages.MarkerDeletionFailed))
	}
}

// Install subscribes to src. Only the first call subscribes; it reports whether it did.
func (m *Monitor) Install(src EventSource) bool {
	subscribed := false
	m.installOnce.Do(func() {
		src.Subscribe(m.handle)
		m.installed.Store(true)
		subscribed = true
	})
	return subscribed
}

// Installed reports whether Install has subscribed to a source.
func (m *Monitor) Installed() bool {
	return m.installed.Load()
}

func (m *Monitor) handle(ctx context.Context, e Event) {
	switch e.Kind {
	case ProjectAdded:
		m.OnProjectAdded(ctx, e.Project)
	case ProjectRemoved:
		m.OnProjectRemoved(e.Project)
	}
}
