package validator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"namesync/internal/journal"
	"namesync/internal/marker"
	"namesync/internal/messages"
	"namesync/internal/project"
	"namesync/internal/property"
	"namesync/internal/status"
)

// fakePrompter answers with a fixed result and counts calls.
type fakePrompter struct {
	accept bool
	err    error
	calls  atomic.Int32
	// onConfirm runs inside Confirm, before it returns
	onConfirm func()
}

func (f *fakePrompter) Confirm(_ context.Context, _ project.Project, _ string) (bool, error) {
	f.calls.Add(1)
	if f.onConfirm != nil {
		f.onConfirm()
	}
	return f.accept, f.err
}

// memoryJournal collects events.
type memoryJournal struct {
	mu     sync.Mutex
	events []journal.Event
}

func (m *memoryJournal) Record(e journal.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *memoryJournal) byType(t journal.EventType) []journal.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []journal.Event
	for _, e := range m.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	props    *property.MemoryStore
	markers  *marker.MemoryStore
	registry *property.IgnoreRegistry
	control  *marker.Controller
	journal  *memoryJournal
	reporter *status.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	msgs, err := messages.Load("en")
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		props:    property.NewMemoryStore(),
		markers:  marker.NewMemoryStore(),
		journal:  &memoryJournal{},
		reporter: &status.Recorder{},
	}
	h.registry = property.NewIgnoreRegistry(h.props, h.reporter)
	h.control = marker.NewController(h.markers, msgs, h.reporter)
	return h
}

func (h *harness) checker(t *testing.T, prompter Prompter) *Checker {
	t.Helper()
	msgs, _ := messages.Load("en")
	return New(h.registry, h.control, Options{
		Prompter: prompter,
		Messages: msgs,
		Journal:  h.journal,
		Reporter: h.reporter,
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
}

func libCore() project.Project {
	return project.Project{Name: "lib-core", Location: "/ws/lib-core-old", Open: true}
}

func TestValidate_ConsistentHasNoMarker(t *testing.T) {
	h := newHarness(t)
	c := h.checker(t, nil)
	p := project.Project{Name: "app", Location: "/ws/app", Open: true}

	if got := c.Validate(context.Background(), p, true); got != OutcomeConsistent {
		t.Errorf("expected consistent, got %v", got)
	}
	if h.markers.Count(p.ResourcePath()) != 0 {
		t.Error("consistent project must not carry a marker")
	}
}

func TestValidate_ConsistentClearsStaleMarker(t *testing.T) {
	h := newHarness(t)
	c := h.checker(t, nil)
	p := project.Project{Name: "app", Location: "/ws/app", Open: true}
	h.control.EnsureMarkerReflects(p, true)

	c.Validate(context.Background(), p, false)

	if h.markers.Count(p.ResourcePath()) != 0 {
		t.Error("stale marker should have been removed")
	}
}

func TestValidate_IgnoredMismatchHasNoMarker(t *testing.T) {
	h := newHarness(t)
	c := h.checker(t, nil)
	p := libCore()
	h.control.EnsureMarkerReflects(p, true)
	h.registry.SetIgnored(p, true)

	if got := c.Validate(context.Background(), p, false); got != OutcomeSuppressed {
		t.Errorf("expected suppressed, got %v", got)
	}
	if h.markers.Count(p.ResourcePath()) != 0 {
		t.Error("ignored project must not carry a marker")
	}
}

func TestValidate_MismatchWithoutPromptIsFlaggedOnce(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{}
	c := h.checker(t, prompter)
	p := libCore()

	first := c.Validate(context.Background(), p, false)
	second := c.Validate(context.Background(), p, false)

	if first != OutcomeFlagged || second != OutcomeFlagged {
		t.Errorf("expected flagged twice, got %v then %v", first, second)
	}
	if prompter.calls.Load() != 0 {
		t.Error("prompt must not be shown when prompting is disallowed")
	}
	if n := h.markers.Count(p.ResourcePath()); n != 1 {
		t.Fatalf("expected exactly one marker, got %d", n)
	}
	found, _ := h.control.Find(p)
	if found == nil || found.Severity != marker.SeverityError {
		t.Errorf("expected an error-severity tagged marker, got %+v", found)
	}
}

func TestValidate_AlreadyDecidedDoesNotPrompt(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{accept: true}
	c := h.checker(t, prompter)
	p := libCore()
	h.registry.SetIgnored(p, false)

	if got := c.Validate(context.Background(), p, true); got != OutcomeFlagged {
		t.Errorf("expected flagged, got %v", got)
	}
	if prompter.calls.Load() != 0 {
		t.Error("an existing decision must suppress the prompt")
	}
}

func TestScenario_DeclineThenIgnoreFromPropertyPage(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{accept: false}
	c := h.checker(t, prompter)
	p := libCore()

	got := c.Validate(context.Background(), p, true)
	if got != OutcomeFlaggedAfterPrompt {
		t.Fatalf("expected flagged after declined prompt, got %v", got)
	}
	if prompter.calls.Load() != 1 {
		t.Errorf("expected one prompt, got %d", prompter.calls.Load())
	}
	value, exists := h.registry.Value(p)
	if !exists || value {
		t.Errorf("declining must store false, got value=%v exists=%v", value, exists)
	}
	if !h.control.Exists(p) {
		t.Fatal("marker must be created after declining")
	}
	if len(h.journal.byType(journal.EventPromptAnswered)) != 1 {
		t.Error("prompt answer not journaled")
	}

	// Later the user ticks "ignore" on the property page, which revalidates without prompting.
	h.registry.SetIgnored(p, true)
	if got := c.Validate(context.Background(), p, false); got != OutcomeSuppressed {
		t.Errorf("expected suppressed after property page change, got %v", got)
	}
	if h.control.Exists(p) {
		t.Error("marker must be deleted after ignoring")
	}
	if prompter.calls.Load() != 1 {
		t.Error("revalidation must not prompt again")
	}
}

func TestValidate_AcceptedPromptSuppresses(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{accept: true}
	c := h.checker(t, prompter)
	p := libCore()

	if got := c.Validate(context.Background(), p, true); got != OutcomeSuppressed {
		t.Errorf("expected suppressed, got %v", got)
	}
	if h.control.Exists(p) {
		t.Error("accepted prompt must not leave a marker")
	}
	if !h.registry.IsIgnored(p) {
		t.Error("accepting must store true")
	}
}

func TestValidate_PromptErrorLeavesNoDecision(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{err: errors.New("terminal closed")}
	c := h.checker(t, prompter)
	p := libCore()

	if got := c.Validate(context.Background(), p, true); got != OutcomeFlagged {
		t.Errorf("expected flagged, got %v", got)
	}
	if h.registry.HasDecision(p) {
		t.Error("a failed prompt must not write a decision")
	}
	if !h.control.Exists(p) {
		t.Error("project must be flagged")
	}
	if len(h.reporter.Entries()) != 1 {
		t.Errorf("prompt failure must be reported, got %d reports", len(h.reporter.Entries()))
	}
}

func TestValidate_ClosedProjectIsNoOp(t *testing.T) {
	h := newHarness(t)
	prompter := &fakePrompter{}
	c := h.checker(t, prompter)
	p := libCore()
	p.Open = false

	if got := c.Validate(context.Background(), p, true); got != OutcomeSkipped {
		t.Errorf("expected skipped, got %v", got)
	}
	if h.markers.Count(p.ResourcePath()) != 0 {
		t.Error("closed project must not get a marker")
	}
	if _, ok, _ := h.props.Get(property.KeyFor(p)); ok {
		t.Error("closed project must not get a flag")
	}
	if prompter.calls.Load() != 0 {
		t.Error("closed project must not prompt")
	}
	if len(h.journal.byType(journal.EventValidated)) != 0 {
		t.Error("skipped validations are not journaled")
	}
}

func TestValidate_UnresolvableLocationIsIndeterminate(t *testing.T) {
	h := newHarness(t)
	c := h.checker(t, &fakePrompter{})
	p := project.Project{Name: "remote", Open: true}

	if got := c.Validate(context.Background(), p, true); got != OutcomeIndeterminate {
		t.Errorf("expected indeterminate, got %v", got)
	}
	if h.markers.Count(p.ResourcePath()) != 0 {
		t.Error("indeterminate must not change markers")
	}
}

func TestValidate_MarkerFailureDoesNotAbort(t *testing.T) {
	h := newHarness(t)
	h.markers.CreateErr = errors.New("store offline")
	c := h.checker(t, nil)

	if got := c.Validate(context.Background(), libCore(), false); got != OutcomeFlagged {
		t.Errorf("expected flagged outcome despite failure, got %v", got)
	}
	if len(h.reporter.Entries()) != 1 {
		t.Errorf("expected the failure to be reported once, got %d", len(h.reporter.Entries()))
	}
}

func TestValidate_SameProjectIsSerialized(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	prompter := &fakePrompter{accept: false}
	prompter.onConfirm = func() {
		close(entered)
		<-release
	}
	c := h.checker(t, prompter)
	p := libCore()

	done := make(chan Outcome, 2)
	go func() { done <- c.Validate(context.Background(), p, true) }()
	<-entered

	go func() { done <- c.Validate(context.Background(), p, false) }()

	select {
	case <-done:
		t.Fatal("second validation ran while the first was waiting on the prompt")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	first, second := <-done, <-done
	if first != OutcomeFlaggedAfterPrompt || second != OutcomeFlagged {
		t.Errorf("unexpected outcomes %v, %v", first, second)
	}
	if h.markers.Count(p.ResourcePath()) != 1 {
		t.Errorf("expected one marker, got %d", h.markers.Count(p.ResourcePath()))
	}
	if c.locks.size() != 0 {
		t.Errorf("locks must be released, %d left", c.locks.size())
	}
}
