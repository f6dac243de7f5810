// Package workspace is the filesystem host: it enumerates the projects of a workspace
// directory and linked locations, and keeps their open/closed state.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"namesync/internal/atomicfile"
	"namesync/internal/project"
	"namesync/internal/watcher"
)

// StateFileName is the name of the open/closed state document inside the state directory.
const StateFileName = "projects.json"

// Link is a project that lives outside the workspace root.
// Location is a path, a file:// URI, or a URI of another scheme that cannot be
// resolved to a local folder. Name is required when the location is not local.
type Link struct {
	Name     string
	Location string
}

// Options configures a Workspace.
type Options struct {
	StateDirectory string
	Links          []Link
	IgnorePatterns []string
	Logger         *slog.Logger
	// OnClose runs after a project has been closed.
	OnClose func(p project.Project)
}

// Workspace enumerates projects below Root. Every call reads the disk again, so
// Projects always reflects the current descriptors.
type Workspace struct {
	root      string
	statePath string
	links     []Link
	filter    *watcher.FileFilter
	logger    *slog.Logger
	onClose   func(project.Project)

	mu sync.Mutex
}

type stateDoc struct {
	Closed []string `json:"closed"`
}

// New creates a Workspace rooted at root.
func New(root string, opts Options) *Workspace {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	stateDir := opts.StateDirectory
	if stateDir == "" {
		stateDir = filepath.Join(root, ".metadata", ".namesync")
	}
	return &Workspace{
		root:      root,
		statePath: filepath.Join(stateDir, StateFileName),
		links:     opts.Links,
		filter:    watcher.NewFileFilter(opts.IgnorePatterns),
		logger:    opts.Logger,
		onClose:   opts.OnClose,
	}
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Projects returns every project of the workspace, root projects first (sorted by
// folder) followed by linked projects in configuration order. When two projects
// declare the same name the first one wins.
func (w *Workspace) Projects() ([]project.Project, error) {
	w.mu.Lock()
	closed, err := w.loadClosedLocked()
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	found, err := w.scanRoot()
	if err != nil {
		return nil, err
	}
	for _, link := range w.links {
		if p, ok := w.resolveLink(link); ok {
			found = append(found, p)
		}
	}

	seen := make(map[string]string, len(found))
	projects := make([]project.Project, 0, len(found))
	for _, p := range found {
		if first, dup := seen[p.Name]; dup {
			w.logger.Warn("duplicate project name, keeping first",
				"project", p.Name, "kept", first, "skipped", p.Location)
			continue
		}
		seen[p.Name] = p.Location
		p.Open = !closed[p.Name]
		projects = append(projects, p)
	}
	return projects, nil
}

// Project returns the project declaring name.
func (w *Workspace) Project(name string) (project.Project, error) {
	projects, err := w.Projects()
	if err != nil {
		return project.Project{}, err
	}
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return project.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

// ProjectAt returns the project whose location is dir, if any.
func (w *Workspace) ProjectAt(dir string) (project.Project, bool, error) {
	projects, err := w.Projects()
	if err != nil {
		return project.Project{}, false, err
	}
	dir = filepath.Clean(dir)
	for _, p := range projects {
		if p.Location != "" && filepath.Clean(p.Location) == dir {
			return p, true, nil
		}
	}
	return project.Project{}, false, nil
}

// WatchDirs returns the directories whose changes can add or remove projects: the
// root and every local linked location.
func (w *Workspace) WatchDirs() []string {
	dirs := []string{w.root}
	for _, link := range w.links {
		if location, ok := w.localPath(link.Location); ok {
			dirs = append(dirs, location)
		}
	}
	return dirs
}

// Close marks the project closed and runs the OnClose hook. Closing a closed project
// does nothing.
func (w *Workspace) Close(name string) error {
	p, err := w.Project(name)
	if err != nil {
		return err
	}
	if !p.Open {
		return nil
	}
	if err := w.setClosed(name, true); err != nil {
		return err
	}
	w.logger.Info("project closed", "project", name)
	if w.onClose != nil {
		w.onClose(p)
	}
	return nil
}

// Open marks the project open. It does not validate the project.
func (w *Workspace) Open(name string) error {
	p, err := w.Project(name)
	if err != nil {
		return err
	}
	if p.Open {
		return nil
	}
	if err := w.setClosed(name, false); err != nil {
		return err
	}
	w.logger.Info("project opened", "project", name)
	return nil
}

func (w *Workspace) scanRoot() ([]project.Project, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Type: DirectoryNotFound, Path: w.root, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: w.root, Err: err}
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, &ScanError{Type: NotADirectory, Path: w.root, Err: errors.New("path is not a directory")}
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: w.root, Err: err}
		}
		return nil, err
	}

	var projects []project.Project
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || w.filter.ShouldIgnore(name) {
			continue
		}
		dir := filepath.Join(w.root, name)
		// os.Stat follows symlinked project folders
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if p, ok := w.readProject(dir); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func (w *Workspace) readProject(dir string) (project.Project, bool) {
	d, err := project.ReadDescriptor(dir)
	if err != nil {
		if !errors.Is(err, project.ErrNoDescriptor) {
			w.logger.Warn("skipping unreadable project", "dir", dir, "err", err)
		}
		return project.Project{}, false
	}
	return project.Project{Name: d.Name, Location: dir}, true
}

func (w *Workspace) resolveLink(link Link) (project.Project, bool) {
	location, local := w.localPath(link.Location)
	if !local {
		if link.Name == "" {
			w.logger.Warn("linked project without a local location needs a name", "location", link.Location)
			return project.Project{}, false
		}
		return project.Project{Name: link.Name}, true
	}
	if p, ok := w.readProject(location); ok {
		return p, true
	}
	if link.Name == "" {
		w.logger.Warn("linked project has no descriptor and no name", "location", location)
		return project.Project{}, false
	}
	return project.Project{Name: link.Name, Location: location}, true
}

// localPath resolves a link location to an absolute local path. Relative paths are
// taken from the workspace root.
func (w *Workspace) localPath(location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}
	if strings.Contains(location, "://") {
		u, err := url.Parse(location)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			return "", false
		}
		return filepath.Clean(filepath.FromSlash(u.Path)), true
	}
	if !filepath.IsAbs(location) {
		location = filepath.Join(w.root, location)
	}
	return filepath.Clean(location), true
}

func (w *Workspace) loadClosedLocked() (map[string]bool, error) {
	closed := make(map[string]bool)
	data, err := os.ReadFile(w.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return closed, nil
		}
		return nil, fmt.Errorf("read project state: %w", err)
	}
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project state %s: %w", w.statePath, err)
	}
	for _, name := range doc.Closed {
		closed[name] = true
	}
	return closed, nil
}

func (w *Workspace) setClosed(name string, value bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	closed, err := w.loadClosedLocked()
	if err != nil {
		return err
	}
	if value {
		closed[name] = true
	} else {
		delete(closed, name)
	}

	doc := stateDoc{Closed: make([]string, 0, len(closed))}
	for n := range closed {
		doc.Closed = append(doc.Closed, n)
	}
	sort.Strings(doc.Closed)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicfile.Save(w.statePath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save project state: %w", err)
	}
	return nil
}
