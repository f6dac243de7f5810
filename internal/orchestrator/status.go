package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"namesync/internal/journal"
	"namesync/internal/marker"
	"namesync/internal/output"
	"namesync/internal/property"
	"namesync/internal/ui"
	"namesync/internal/validator"
)

// Problems returns every name problem marker, sorted by resource.
func (o *Orchestrator) Problems() ([]marker.Marker, error) {
	all, err := o.markers.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read markers: %w", err)
	}
	problems := make([]marker.Marker, 0, len(all))
	for _, m := range all {
		if m.IsNameProblem() {
			problems = append(problems, m)
		}
	}
	return problems, nil
}

// IgnoreStatus lists the ignore decision of every project, or of the named ones.
func (o *Orchestrator) IgnoreStatus(names ...string) ([]output.IgnoreRow, error) {
	projects, err := o.workspace.Projects()
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		wanted := make(map[string]bool, len(names))
		for _, n := range names {
			if _, err := o.workspace.Project(n); err != nil {
				return nil, err
			}
			wanted[n] = true
		}
		filtered := projects[:0]
		for _, p := range projects {
			if wanted[p.Name] {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	rows := make([]output.IgnoreRow, 0, len(projects))
	for _, p := range projects {
		row := output.IgnoreRow{Project: p.Name, Folder: property.KeyFor(p).Qualifier, Open: p.Open}
		// Value reports nothing for closed projects; show their stored decision anyway
		lookup := p
		lookup.Open = true
		if value, exists := o.ignores.Value(lookup); exists {
			row.Value = strconv.FormatBool(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// IgnorePage opens the property page of the named project.
func (o *Orchestrator) IgnorePage(name string) (*ui.IgnorePage, error) {
	p, err := o.workspace.Project(name)
	if err != nil {
		return nil, err
	}
	return ui.NewIgnorePage(p, o.ignores, o.newChecker(nil), o.messages), nil
}

// SetIgnore saves the ignore checkbox of a project and revalidates it.
func (o *Orchestrator) SetIgnore(ctx context.Context, name string, ignore bool) (validator.Outcome, error) {
	page, err := o.IgnorePage(name)
	if err != nil {
		return validator.OutcomeSkipped, err
	}
	outcome := page.PerformOK(ctx, ignore)
	o.recordIgnoreChange(name, ignore, outcome)
	return outcome, nil
}

// ResetIgnore restores the default (not ignored) and revalidates the project.
func (o *Orchestrator) ResetIgnore(ctx context.Context, name string) (validator.Outcome, error) {
	page, err := o.IgnorePage(name)
	if err != nil {
		return validator.OutcomeSkipped, err
	}
	outcome := page.PerformDefaults(ctx)
	o.recordIgnoreChange(name, false, outcome)
	return outcome, nil
}

func (o *Orchestrator) recordIgnoreChange(name string, ignore bool, outcome validator.Outcome) {
	o.recorder.Record(journal.Event{
		EventType: journal.EventIgnoreChanged,
		Project:   name,
		Outcome:   outcome.String(),
		Metadata:  map[string]string{"ignore": strconv.FormatBool(ignore)},
	})
}

// CloseProject closes a project; its markers are dropped.
func (o *Orchestrator) CloseProject(name string) error {
	return o.workspace.Close(name)
}

// OpenProject reopens a project. It is validated by the next scan.
func (o *Orchestrator) OpenProject(name string) error {
	return o.workspace.Open(name)
}

// History reads the validation journal.
func (o *Orchestrator) History(f journal.Filter) ([]journal.Event, int, error) {
	return journal.ReadFile(journal.Config{Directory: o.config.StateDirectory}.Path(), f)
}
