package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"namesync/internal/config"
	"namesync/internal/journal"
	"namesync/internal/monitor"
	"namesync/internal/output"
	"namesync/internal/project"
	"namesync/internal/validator"
	"namesync/internal/workspace"
)

type scriptedAsker struct {
	mu      sync.Mutex
	answer  bool
	titles  []string
	release chan struct{}
	once    sync.Once
}

func (a *scriptedAsker) Ask(_ context.Context, title, _ string) (bool, error) {
	a.mu.Lock()
	a.titles = append(a.titles, title)
	a.mu.Unlock()
	if a.release != nil {
		a.once.Do(func() { close(a.release) })
	}
	return a.answer, nil
}

func (a *scriptedAsker) asked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.titles)
}

type fixture struct {
	root string
	cfg  *config.Configuration
	out  *bytes.Buffer
	err  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.LoadOrCreate(filepath.Join(root, config.DefaultFileName), root)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Watch.DebounceMillis = 20
	cfg.Watch.StableThresholdMillis = 20
	return &fixture{root: root, cfg: cfg, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
}

func (f *fixture) project(t *testing.T, folder, name string) string {
	t.Helper()
	dir := filepath.Join(f.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := project.WriteDescriptor(dir, name); err != nil {
		t.Fatal(err)
	}
	return dir
}

func (f *fixture) orchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	opts.Output = output.New(output.Config{Writer: f.out, ErrWriter: f.err})
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	o, err := New(f.cfg, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func TestScan_FlagsMismatchesOnly(t *testing.T) {
	f := newFixture(t)
	f.project(t, "alpha", "alpha")
	f.project(t, "beta-old", "beta")
	o := f.orchestrator(t, Options{})

	summary, err := o.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if summary.Validated() != 2 || summary.Flagged() != 1 {
		t.Errorf("unexpected summary %+v", summary.Outcomes)
	}

	problems, err := o.Problems()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 || problems[0].Resource != "/beta" {
		t.Fatalf("expected one problem on /beta, got %+v", problems)
	}

	// scanning again creates no duplicate
	if _, err := o.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if problems, _ := o.Problems(); len(problems) != 1 {
		t.Errorf("expected one problem after rescan, got %d", len(problems))
	}
}

func TestScan_MissingWorkspace(t *testing.T) {
	f := newFixture(t)
	f.cfg.Workspace = filepath.Join(f.root, "missing")
	o := f.orchestrator(t, Options{})

	_, err := o.Scan(context.Background())
	var scanErr *workspace.ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("expected a ScanError, got %v", err)
	}
}

func TestSetAndResetIgnore(t *testing.T) {
	f := newFixture(t)
	f.project(t, "beta-old", "beta")
	o := f.orchestrator(t, Options{})
	ctx := context.Background()

	if _, err := o.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	outcome, err := o.SetIgnore(ctx, "beta", true)
	if err != nil || outcome != validator.OutcomeSuppressed {
		t.Fatalf("SetIgnore = %v, %v", outcome, err)
	}
	if problems, _ := o.Problems(); len(problems) != 0 {
		t.Error("ignoring must delete the marker")
	}
	rows, err := o.IgnoreStatus("beta")
	if err != nil || len(rows) != 1 || rows[0].Value != "true" || rows[0].Folder != "beta-old" {
		t.Errorf("unexpected ignore rows %+v %v", rows, err)
	}

	outcome, err = o.ResetIgnore(ctx, "beta")
	if err != nil || outcome != validator.OutcomeFlagged {
		t.Fatalf("ResetIgnore = %v, %v", outcome, err)
	}
	if problems, _ := o.Problems(); len(problems) != 1 {
		t.Error("reset must bring the marker back")
	}

	if _, err := o.SetIgnore(ctx, "ghost", true); !errors.Is(err, workspace.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestCloseDropsMarkersAndSkipsValidation(t *testing.T) {
	f := newFixture(t)
	f.project(t, "beta-old", "beta")
	o := f.orchestrator(t, Options{})
	ctx := context.Background()

	if _, err := o.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.CloseProject("beta"); err != nil {
		t.Fatal(err)
	}
	if problems, _ := o.Problems(); len(problems) != 0 {
		t.Error("closing must drop the marker")
	}

	summary, err := o.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Validated() != 0 {
		t.Error("closed project must not be validated")
	}
	if outcome, _ := o.SetIgnore(ctx, "beta", true); outcome != validator.OutcomeSkipped {
		t.Errorf("closed project page must be skipped, got %v", outcome)
	}

	if err := o.OpenProject("beta"); err != nil {
		t.Fatal(err)
	}
	if summary, _ := o.Scan(ctx); summary.Flagged() != 1 {
		t.Error("reopened project must be flagged again by the next scan")
	}
}

func TestHistoryRecordsRuns(t *testing.T) {
	f := newFixture(t)
	f.project(t, "beta-old", "beta")
	o := f.orchestrator(t, Options{})

	if _, err := o.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := o.SetIgnore(context.Background(), "beta", true); err != nil {
		t.Fatal(err)
	}

	events, skipped, err := o.History(journal.Filter{})
	if err != nil || skipped != 0 {
		t.Fatalf("History = %v skipped=%d", err, skipped)
	}
	seen := map[journal.EventType]int{}
	for _, e := range events {
		seen[e.EventType]++
	}
	if seen[journal.EventRunStart] != 1 || seen[journal.EventRunEnd] != 1 {
		t.Errorf("run markers missing: %v", seen)
	}
	if seen[journal.EventValidated] < 2 || seen[journal.EventIgnoreChanged] != 1 {
		t.Errorf("unexpected events: %v", seen)
	}

	onlyBeta, _, _ := o.History(journal.Filter{Project: "beta", EventType: journal.EventIgnoreChanged})
	if len(onlyBeta) != 1 || onlyBeta[0].Metadata["ignore"] != "true" {
		t.Errorf("filtered history %+v", onlyBeta)
	}
}

func TestJournalDisabled(t *testing.T) {
	f := newFixture(t)
	disabled := false
	f.cfg.Journal.Enabled = &disabled
	f.project(t, "alpha", "alpha")
	o := f.orchestrator(t, Options{})

	if _, err := o.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	events, _, err := o.History(journal.Filter{})
	if err != nil || len(events) != 0 {
		t.Errorf("expected no journal, got %d events (%v)", len(events), err)
	}
}

func TestRun_PromptsForAddedProject(t *testing.T) {
	f := newFixture(t)
	f.project(t, "alpha", "alpha")
	f.project(t, "beta-old", "beta")

	asker := &scriptedAsker{answer: true, release: make(chan struct{})}
	ready := make(chan *monitor.Summary, 1)
	o := f.orchestrator(t, Options{Asker: asker, Ready: func(s *monitor.Summary) { ready <- s }})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		summary *RunSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := o.Run(ctx)
		done <- result{s, err}
	}()

	select {
	case scan := <-ready:
		if scan.Flagged() != 1 {
			t.Errorf("startup scan should flag beta, got %+v", scan.Outcomes)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run never became ready")
	}
	if asker.asked() != 0 {
		t.Fatal("startup scan must not prompt")
	}

	f.project(t, "gamma-copy", "gamma")

	select {
	case <-asker.release:
	case <-time.After(5 * time.Second):
		t.Fatal("added project never prompted")
	}
	// the answer is persisted before the marker decision; wait for the validation to finish
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if rows, _ := o.IgnoreStatus("gamma"); len(rows) == 1 && rows[0].Value == "true" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	res := <-done
	if res.err != nil {
		t.Fatalf("Run failed: %v", res.err)
	}
	if res.summary.Watch.Added != 1 {
		t.Errorf("expected one added project, got %d", res.summary.Watch.Added)
	}

	problems, _ := o.Problems()
	for _, p := range problems {
		if p.Resource == "/gamma" {
			t.Error("accepted prompt must not leave a marker")
		}
	}
	rows, _ := o.IgnoreStatus("gamma")
	if len(rows) != 1 || rows[0].Value != "true" {
		t.Errorf("accepted prompt must store ignore=true, got %+v", rows)
	}
}
