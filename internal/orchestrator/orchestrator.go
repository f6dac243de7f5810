// Package orchestrator wires configuration, stores, the checker and the workspace
// together and implements the namesync commands on top of them.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"namesync/internal/config"
	"namesync/internal/journal"
	"namesync/internal/marker"
	"namesync/internal/messages"
	"namesync/internal/monitor"
	"namesync/internal/output"
	"namesync/internal/project"
	"namesync/internal/property"
	"namesync/internal/status"
	"namesync/internal/ui"
	"namesync/internal/validator"
	"namesync/internal/watcher"
	"namesync/internal/workspace"
)

// Options holds the process-level collaborators of an Orchestrator.
type Options struct {
	Output *output.Output
	Logger *slog.Logger
	// Input is read by the prompt. Defaults to os.Stdin.
	Input *os.File
	// Asker replaces the terminal prompt; used by tests.
	Asker ui.Asker
	// Ready is called by Run once the watcher is installed and the startup scan is done.
	Ready func(*monitor.Summary)
}

// Orchestrator owns one workspace's namesync state.
type Orchestrator struct {
	config   *config.Configuration
	opts     Options
	out      *output.Output
	logger   *slog.Logger
	reporter status.Reporter
	messages messages.Messages

	workspace  *workspace.Workspace
	markers    *marker.FileStore
	properties *property.FileStore
	ignores    *property.IgnoreRegistry
	control    *marker.Controller
	journal    *journal.Writer
	recorder   journal.Recorder
}

// New creates an Orchestrator for cfg. cfg must have defaults applied.
func New(cfg *config.Configuration, opts Options) (*Orchestrator, error) {
	if opts.Output == nil {
		opts.Output = output.New(output.DefaultConfig())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	msgs, err := messages.LoadWithOverride(cfg.Language, cfg.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	o := &Orchestrator{
		config:     cfg,
		opts:       opts,
		out:        opts.Output,
		logger:     opts.Logger,
		reporter:   status.NewLogReporter(opts.Logger, opts.Output.ErrWriter()),
		messages:   msgs,
		markers:    marker.NewFileStore(cfg.StateDirectory),
		properties: property.NewFileStore(cfg.StateDirectory),
		recorder:   journal.Discard{},
	}
	o.ignores = property.NewIgnoreRegistry(o.properties, o.reporter)
	o.control = marker.NewController(o.markers, msgs, o.reporter)

	if cfg.JournalEnabled() {
		o.journal = journal.NewWriter(journal.Config{
			Directory:  cfg.StateDirectory,
			MaxSizeMB:  cfg.Journal.MaxSizeMB,
			MaxBackups: cfg.Journal.MaxBackups,
		})
		o.journal.OnError(func(err error) {
			o.logger.Warn("journal write failed", "err", err)
		})
		o.recorder = o.journal
	}

	links := make([]workspace.Link, 0, len(cfg.LinkedProjects))
	for _, l := range cfg.LinkedProjects {
		links = append(links, workspace.Link{Name: l.Name, Location: l.Location})
	}
	var ignorePatterns []string
	if cfg.Watch != nil {
		ignorePatterns = cfg.Watch.IgnorePatterns
	}
	o.workspace = workspace.New(cfg.Workspace, workspace.Options{
		StateDirectory: cfg.StateDirectory,
		Links:          links,
		IgnorePatterns: ignorePatterns,
		Logger:         opts.Logger,
		OnClose:        o.dropMarkers,
	})
	return o, nil
}

// Close releases the journal.
func (o *Orchestrator) Close() error {
	if o.journal != nil {
		return o.journal.Close()
	}
	return nil
}

// Workspace returns the filesystem host.
func (o *Orchestrator) Workspace() *workspace.Workspace {
	return o.workspace
}

func (o *Orchestrator) newChecker(prompter validator.Prompter) *validator.Checker {
	return validator.New(o.ignores, o.control, validator.Options{
		Prompter: prompter,
		Messages: o.messages,
		Journal:  o.recorder,
		Reporter: o.reporter,
		Logger:   o.logger,
	})
}

func (o *Orchestrator) newMonitor(checker *validator.Checker) *monitor.Monitor {
	return monitor.New(o.workspace, checker, monitor.Options{
		Markers:  o.markers,
		Reporter: o.reporter,
		Messages: o.messages,
		Logger:   o.logger,
		Progress: func(current, total int) {
			if current == 1 {
				o.out.StartProgress(total)
			}
			o.out.UpdateProgress(current, "")
			if current == total {
				o.out.EndProgress()
			}
		},
	})
}

func (o *Orchestrator) dropMarkers(p project.Project) {
	if _, err := o.markers.DeleteResource(p.ResourcePath()); err != nil {
		o.reporter.Report(err, o.messages.Get(messages.MarkerDeletionFailed))
	}
}

func (o *Orchestrator) startRun(command string) {
	if o.journal == nil {
		return
	}
	if err := o.journal.StartRun(map[string]string{
		"command":   command,
		"workspace": o.workspace.Root(),
	}); err != nil {
		o.logger.Warn("journal write failed", "err", err)
	}
}

func (o *Orchestrator) endRun(summary *monitor.Summary) {
	if o.journal == nil {
		return
	}
	meta := map[string]string{}
	if summary != nil {
		meta["validated"] = strconv.Itoa(summary.Validated())
		meta["flagged"] = strconv.Itoa(summary.Flagged())
		meta["durationMs"] = strconv.FormatInt(summary.Duration.Milliseconds(), 10)
	}
	if err := o.journal.EndRun(meta); err != nil {
		o.logger.Warn("journal write failed", "err", err)
	}
}

// Scan validates every open project once without prompting.
func (o *Orchestrator) Scan(ctx context.Context) (*monitor.Summary, error) {
	o.startRun("scan")
	summary, err := o.newMonitor(o.newChecker(nil)).ScanAll(ctx)
	o.endRun(summary)
	if err != nil {
		return summary, fmt.Errorf("scan failed: %w", err)
	}
	return summary, nil
}

// Run installs the workspace watcher, performs the startup scan and then validates
// every project that is added until ctx is cancelled. Mismatched new projects prompt
// the user when prompting is enabled.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	o.startRun("run")

	var (
		prompter   validator.Prompter
		dispatcher *ui.Dispatcher
	)
	if o.config.PromptEnabled() {
		dispatcher = ui.NewDispatcher()
		defer dispatcher.Close()
		asker := o.opts.Asker
		if asker == nil {
			asker = ui.NewTerminalAsker(o.opts.Input, o.out.Writer(), o.config.Prompt.Style)
		}
		prompter = ui.NewDialogPrompter(dispatcher, asker, "")
	}
	mon := o.newMonitor(o.newChecker(prompter))

	w := watcher.New(o.config.WatcherConfig(), o.workspace, o.logger)
	mon.Install(w)
	if err := w.Start(ctx, o.workspace.WatchDirs()); err != nil {
		o.endRun(nil)
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	scan, err := mon.ScanAll(ctx)
	if err != nil {
		w.Stop()
		o.endRun(scan)
		return nil, fmt.Errorf("startup scan failed: %w", err)
	}
	o.logger.Info("watching workspace", "root", o.workspace.Root(), "prompt", prompter != nil)
	if o.opts.Ready != nil {
		o.opts.Ready(scan)
	}

	<-ctx.Done()

	summary := &RunSummary{Scan: scan, Watch: w.Stop(), Duration: time.Since(start)}
	o.endRun(scan)
	o.logger.Info("stopped watching", "added", summary.Watch.Added, "removed", summary.Watch.Removed)
	return summary, nil
}
