// Package watcher turns filesystem activity in a workspace into project added and
// removed events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"namesync/internal/monitor"
	"namesync/internal/project"
)

// Config contains watcher settings.
type Config struct {
	Debounce        time.Duration // quiet period per project folder before it is re-read
	StableThreshold time.Duration // descriptor must not change for this long; 0 disables the check
	IgnorePatterns  []string      // base-name globs, see FileFilter
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce:        500 * time.Millisecond,
		StableThreshold: 250 * time.Millisecond,
		IgnorePatterns:  DefaultIgnorePatterns(),
	}
}

// Lister enumerates the projects of the workspace.
type Lister interface {
	Projects() ([]project.Project, error)
}

// Summary contains stats from a watch session.
type Summary struct {
	Added         int
	Removed       int
	EventsIgnored int
	Errors        int
	Duration      time.Duration
}

// Watcher monitors workspace folders and delivers monitor events to its listeners.
// A change is delivered as a diff of the project list before and after it, so a
// descriptor that changes its declared name yields a removal and an addition.
type Watcher struct {
	config    *Config
	lister    Lister
	logger    *slog.Logger
	filter    *FileFilter
	stability *StabilityChecker
	debouncer *Debouncer

	fsWatcher *fsnotify.Watcher
	roots     map[string]bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inflight  sync.WaitGroup
	startTime time.Time
	stopOnce  sync.Once

	mu        sync.Mutex
	listeners []monitor.Listener
	known     map[string]project.Project
	stopped   bool
	summary   Summary

	// serializes rescans so that diffs are computed against a consistent baseline
	rescanMu sync.Mutex
}

// New creates a Watcher. A nil config uses DefaultConfig.
func New(config *Config, lister Lister, logger *slog.Logger) *Watcher {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		config:    config,
		lister:    lister,
		logger:    logger,
		filter:    NewFileFilter(config.IgnorePatterns),
		stability: NewStabilityChecker(config.StableThreshold),
		roots:     make(map[string]bool),
		known:     make(map[string]project.Project),
	}
}

// Subscribe implements monitor.EventSource.
func (w *Watcher) Subscribe(l monitor.Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Start records the current projects as known and begins watching roots and their
// immediate subfolders. It returns once the watches are in place.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	projects, err := w.lister.Projects()
	if err != nil {
		return fmt.Errorf("initial project list: %w", err)
	}
	for _, p := range projects {
		w.known[p.Name] = p
	}

	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			w.fsWatcher.Close()
			return err
		}
		if err := w.fsWatcher.Add(absRoot); err != nil {
			w.fsWatcher.Close()
			return fmt.Errorf("watch %s: %w", absRoot, err)
		}
		w.roots[absRoot] = true
		w.watchChildren(absRoot)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.debouncer = NewDebouncer(w.config.Debounce, w.settle)
	w.startTime = time.Now()

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop shuts the watcher down and returns a summary of the session. Changes that are
// still being debounced are dropped.
func (w *Watcher) Stop() *Summary {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()

		if w.cancel != nil {
			w.cancel()
		}
		if w.debouncer != nil {
			if dropped := w.debouncer.Stop(); dropped > 0 {
				w.logger.Debug("dropped pending changes", "count", dropped)
			}
		}
		w.wg.Wait()
		w.inflight.Wait()
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
		}
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	summary := w.summary
	summary.Duration = time.Since(w.startTime)
	return &summary
}

// IsRunning reports whether the watcher has been started and not stopped.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsWatcher != nil && !w.stopped
}

func (w *Watcher) watchChildren(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		w.logger.Warn("cannot list folder", "dir", root, "err", err)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || w.skip(entry.Name()) {
			continue
		}
		w.addWatch(filepath.Join(root, entry.Name()))
	}
}

func (w *Watcher) addWatch(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch folder", "dir", dir, "err", err)
	}
}

func (w *Watcher) skip(name string) bool {
	return strings.HasPrefix(name, ".") || w.filter.ShouldIgnore(name)
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", "err", err)
			w.count(func(s *Summary) { s.Errors++ })
		}
	}
}

// handleEvent maps a raw event to the project folder it concerns.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	parent := filepath.Dir(path)

	if filepath.Base(path) == project.DescriptorFile {
		w.debouncer.Add(parent)
		return
	}
	if !w.roots[parent] || w.skip(filepath.Base(path)) {
		w.count(func(s *Summary) { s.EventsIgnored++ })
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addWatch(path)
		}
		w.debouncer.Add(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.debouncer.Add(path)
	default:
		w.count(func(s *Summary) { s.EventsIgnored++ })
	}
}

// settle runs once a project folder has been quiet for the debounce delay.
func (w *Watcher) settle(dir string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	if w.config.StableThreshold > 0 {
		err := w.stability.Wait(w.ctx, project.DescriptorPath(dir))
		switch {
		case err == nil, errors.Is(err, ErrFileNotFound):
		case w.ctx.Err() != nil:
			return
		default:
			w.logger.Warn("descriptor did not settle", "dir", dir, "err", err)
		}
	}
	w.Rescan(w.ctx)
}

// Rescan compares the current project list with the known one and delivers the
// difference: removals first, then additions. A project whose location changed, such as
// a folder renamed on disk, is removed and added again.
func (w *Watcher) Rescan(ctx context.Context) {
	w.rescanMu.Lock()
	defer w.rescanMu.Unlock()

	projects, err := w.lister.Projects()
	if err != nil {
		w.logger.Error("cannot list projects", "err", err)
		w.count(func(s *Summary) { s.Errors++ })
		return
	}

	current := make(map[string]project.Project, len(projects))
	for _, p := range projects {
		current[p.Name] = p
	}

	w.mu.Lock()
	var removed, added []project.Project
	for name, p := range w.known {
		if now, ok := current[name]; !ok || now.Location != p.Location {
			removed = append(removed, p)
		}
	}
	for _, p := range projects {
		if before, ok := w.known[p.Name]; !ok || before.Location != p.Location {
			added = append(added, p)
		}
	}
	w.known = current
	w.summary.Removed += len(removed)
	w.summary.Added += len(added)
	w.mu.Unlock()

	for _, p := range removed {
		w.logger.Info("project removed", "project", p.Name)
		w.deliver(ctx, monitor.Event{Kind: monitor.ProjectRemoved, Project: p})
	}
	for _, p := range added {
		w.logger.Info("project added", "project", p.Name, "location", p.Location)
		w.deliver(ctx, monitor.Event{Kind: monitor.ProjectAdded, Project: p})
	}
}

func (w *Watcher) deliver(ctx context.Context, e monitor.Event) {
	w.mu.Lock()
	listeners := make([]monitor.Listener, len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, l := range listeners {
		l(ctx, e)
	}
}

func (w *Watcher) count(fn func(*Summary)) {
	w.mu.Lock()
	fn(&w.summary)
	w.mu.Unlock()
}
