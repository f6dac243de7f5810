package ui

import (
	"context"

	"namesync/internal/messages"
	"namesync/internal/project"
	"namesync/internal/validator"
)

// Revalidator re-runs validation for a project.
type Revalidator interface {
	Validate(ctx context.Context, p project.Project, allowPrompt bool) validator.Outcome
}

// IgnoreStore is the part of the ignore registry the property page uses.
type IgnoreStore interface {
	Value(p project.Project) (value bool, exists bool)
	SetIgnored(p project.Project, value bool)
}

// IgnorePage is the "ignore renaming" property page of one project.
// Saving never prompts; it persists the checkbox and revalidates.
type IgnorePage struct {
	project  project.Project
	ignores  IgnoreStore
	checker  Revalidator
	messages messages.Messages
}

// NewIgnorePage creates the property page for p.
func NewIgnorePage(p project.Project, ignores IgnoreStore, checker Revalidator, msgs messages.Messages) *IgnorePage {
	return &IgnorePage{project: p, ignores: ignores, checker: checker, messages: msgs}
}

// Text is the checkbox label.
func (pg *IgnorePage) Text() string {
	return pg.messages.Get(messages.PropertyPageText)
}

// Load returns the current checkbox state. An undecided project shows unchecked.
func (pg *IgnorePage) Load() bool {
	value, _ := pg.ignores.Value(pg.project)
	return value
}

// PerformOK stores checked and revalidates the project.
func (pg *IgnorePage) PerformOK(ctx context.Context, checked bool) validator.Outcome {
	pg.ignores.SetIgnored(pg.project, checked)
	return pg.revalidate(ctx)
}

// PerformDefaults resets the flag to false and revalidates the project.
func (pg *IgnorePage) PerformDefaults(ctx context.Context) validator.Outcome {
	pg.ignores.SetIgnored(pg.project, false)
	return pg.revalidate(ctx)
}

func (pg *IgnorePage) revalidate(ctx context.Context) validator.Outcome {
	if !pg.project.Open {
		return validator.OutcomeSkipped
	}
	return pg.checker.Validate(ctx, pg.project, false)
}
