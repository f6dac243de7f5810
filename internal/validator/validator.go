// Package validator checks that a project's declared name matches its folder name and
// reconciles the problem marker and the user's ignore decision with the result.
package validator

import (
	"context"
	"log/slog"
	"strconv"

	"namesync/internal/journal"
	"namesync/internal/messages"
	"namesync/internal/project"
	"namesync/internal/status"
)

// Ignores is the persisted ignore decision per project.
type Ignores interface {
	IsIgnored(p project.Project) bool
	HasDecision(p project.Project) bool
	SetIgnored(p project.Project, value bool)
}

// Markers maintains the mismatch marker of a project.
type Markers interface {
	EnsureMarkerReflects(p project.Project, hasMismatch bool)
}

// Prompter asks the user whether a mismatched project should be ignored from now on.
// Confirm blocks until the user answers. accepted=false with a nil error means the user
// declined or cancelled; a non-nil error means no answer was obtained.
type Prompter interface {
	Confirm(ctx context.Context, p project.Project, message string) (accepted bool, err error)
}

// Options configures optional collaborators of a Checker.
type Options struct {
	Prompter Prompter // nil disables prompting
	Messages messages.Messages
	Journal  journal.Recorder
	Reporter status.Reporter
	Logger   *slog.Logger
}

// Checker runs the name consistency workflow for one project at a time.
// Validations of the same project are serialized; different projects run concurrently.
type Checker struct {
	ignores  Ignores
	markers  Markers
	prompter Prompter
	messages messages.Messages
	journal  journal.Recorder
	reporter status.Reporter
	logger   *slog.Logger

	locks keyedLocks
}

// New creates a Checker.
func New(ignores Ignores, markers Markers, opts Options) *Checker {
	if opts.Journal == nil {
		opts.Journal = journal.Discard{}
	}
	if opts.Reporter == nil {
		opts.Reporter = status.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Messages == nil {
		opts.Messages = messages.Messages{}
	}
	return &Checker{
		ignores:  ignores,
		markers:  markers,
		prompter: opts.Prompter,
		messages: opts.Messages,
		journal:  opts.Journal,
		reporter: opts.Reporter,
		logger:   opts.Logger,
	}
}

// CanPrompt reports whether the checker has a prompter.
func (c *Checker) CanPrompt() bool {
	return c.prompter != nil
}

// Validate checks p and updates its marker. allowPrompt permits asking the user for an
// ignore decision when the project has none yet; it is true only for first-detection events.
func (c *Checker) Validate(ctx context.Context, p project.Project, allowPrompt bool) Outcome {
	unlock := c.locks.lock(p.ResourcePath())
	defer unlock()

	outcome := c.validate(ctx, p, allowPrompt)

	folder, _ := p.FolderName()
	c.logger.Debug("project validated",
		"project", p.Name,
		"folder", folder,
		"outcome", outcome.String(),
		"allowPrompt", allowPrompt,
	)
	if outcome != OutcomeSkipped {
		c.journal.Record(journal.Event{
			EventType: journal.EventValidated,
			Project:   p.Name,
			Folder:    folder,
			Outcome:   outcome.String(),
		})
	}
	return outcome
}

func (c *Checker) validate(ctx context.Context, p project.Project, allowPrompt bool) Outcome {
	if !p.Open {
		return OutcomeSkipped
	}

	if c.ignores.IsIgnored(p) {
		c.markers.EnsureMarkerReflects(p, false)
		return OutcomeSuppressed
	}

	folder, ok := p.FolderName()
	if !ok {
		return OutcomeIndeterminate
	}

	if p.Name == folder {
		c.markers.EnsureMarkerReflects(p, false)
		return OutcomeConsistent
	}

	prompted := false
	if allowPrompt && c.prompter != nil && !c.ignores.HasDecision(p) {
		prompted = c.prompt(ctx, p, folder)
		if c.ignores.IsIgnored(p) {
			return OutcomeSuppressed
		}
	}

	c.markers.EnsureMarkerReflects(p, true)
	if prompted {
		return OutcomeFlaggedAfterPrompt
	}
	return OutcomeFlagged
}

// prompt asks the user and records the answer. It returns true if an answer was obtained.
func (c *Checker) prompt(ctx context.Context, p project.Project, folder string) bool {
	accepted, err := c.prompter.Confirm(ctx, p, c.messages.Get(messages.WarningDialog, folder))
	if err != nil {
		c.reporter.Report(err, "no answer to the rename warning for project "+p.Name)
		c.journal.Record(journal.Event{
			EventType: journal.EventError,
			Project:   p.Name,
			Folder:    folder,
			Error:     err.Error(),
		})
		return false
	}

	c.ignores.SetIgnored(p, accepted)
	c.logger.Info("rename warning answered", "project", p.Name, "folder", folder, "ignore", accepted)
	c.journal.Record(journal.Event{
		EventType: journal.EventPromptAnswered,
		Project:   p.Name,
		Folder:    folder,
		Metadata:  map[string]string{"ignore": strconv.FormatBool(accepted)},
	})
	return true
}
