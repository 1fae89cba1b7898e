package pages

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Extension is the file extension of Vero scripts.
const Extension = ".vero"

// Snapshot is an immutable view of the known pages. Popups receive a snapshot
// at call time and never hold on to the index itself.
type Snapshot struct {
	pages  []Page
	byName map[string]int
}

// NewSnapshot builds a snapshot. Pages sharing a name are merged in order;
// the first declaration of a member wins.
func NewSnapshot(pages []Page) *Snapshot {
	s := &Snapshot{byName: make(map[string]int)}
	for _, p := range pages {
		i, ok := s.byName[p.Name]
		if !ok {
			s.byName[p.Name] = len(s.pages)
			s.pages = append(s.pages, Page{Name: p.Name, File: p.File, Line: p.Line})
			i = len(s.pages) - 1
		}
		merged := &s.pages[i]
		for _, f := range p.Fields {
			if !hasField(merged.Fields, f.Name) {
				merged.Fields = append(merged.Fields, f)
			}
		}
		for _, a := range p.Actions {
			if !hasAction(merged.Actions, a.Name) {
				merged.Actions = append(merged.Actions, a)
			}
		}
	}
	return s
}

// Empty is a snapshot with no pages.
func Empty() *Snapshot {
	return NewSnapshot(nil)
}

// Len returns the number of pages.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pages)
}

// Pages returns the page names in declaration order.
func (s *Snapshot) Pages() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.pages))
	for i, p := range s.pages {
		names[i] = p.Name
	}
	return names
}

// All returns a copy of every page.
func (s *Snapshot) All() []Page {
	if s == nil {
		return nil
	}
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// Page returns one page by name.
func (s *Snapshot) Page(name string) (Page, bool) {
	if s == nil {
		return Page{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Page{}, false
	}
	return s.pages[i], true
}

// Fields returns the fields of a page in declaration order.
func (s *Snapshot) Fields(page string) []Field {
	p, _ := s.Page(page)
	return append([]Field(nil), p.Fields...)
}

// Actions returns the reusable actions of a page in declaration order.
func (s *Snapshot) Actions(page string) []Action {
	p, _ := s.Page(page)
	return append([]Action(nil), p.Actions...)
}

// Has reports whether page declares a field or action named member.
func (s *Snapshot) Has(page, member string) bool {
	p, ok := s.Page(page)
	if !ok {
		return false
	}
	return hasField(p.Fields, member) || hasAction(p.Actions, member)
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func hasAction(actions []Action, name string) bool {
	for _, a := range actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Index keeps a snapshot of a directory's pages current.
type Index struct {
	dir    string
	logger *slog.Logger
	snap   atomic.Pointer[Snapshot]

	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

// NewIndex creates an index over dir. Call Load before reading it.
func NewIndex(dir string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idx := &Index{
		dir:       dir,
		logger:    logger,
		listeners: make(map[chan struct{}]struct{}),
	}
	idx.snap.Store(Empty())
	return idx
}

// Dir returns the indexed directory.
func (idx *Index) Dir() string {
	return idx.dir
}

// Snapshot returns the current snapshot. It never returns nil.
func (idx *Index) Snapshot() *Snapshot {
	return idx.snap.Load()
}

// Load scans the directory and swaps in a fresh snapshot.
// A missing directory yields an empty snapshot.
func (idx *Index) Load() error {
	pages, err := LoadDir(idx.dir)
	if err != nil {
		return err
	}
	idx.snap.Store(NewSnapshot(pages))
	idx.logger.Debug("page index loaded", "dir", idx.dir, "pages", len(pages))
	idx.broadcast()
	return nil
}

// LoadDir parses every script under dir, in path order.
func LoadDir(dir string) ([]Page, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == Extension {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk pages directory: %w", err)
	}
	sort.Strings(files)

	var pages []Page
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, p := range Parse(string(data)) {
			p.File = path
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// Subscribe returns a channel that receives a ping after each reload.
// The caller must call Unsubscribe when done.
func (idx *Index) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	idx.mu.Lock()
	idx.listeners[ch] = struct{}{}
	idx.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (idx *Index) Unsubscribe(ch chan struct{}) {
	idx.mu.Lock()
	delete(idx.listeners, ch)
	idx.mu.Unlock()
	close(ch)
}

func (idx *Index) broadcast() {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for ch := range idx.listeners {
		select {
		case ch <- struct{}{}:
		default:
			// Listener already has a pending ping.
		}
	}
}

// debounceDelay collapses bursts of file events into one reload.
const debounceDelay = 100 * time.Millisecond

// Watch reloads the index whenever a script under the directory changes,
// until ctx is cancelled.
func (idx *Index) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, idx.dir); err != nil {
		idx.logger.Error("failed to watch pages directory", "error", err)
		// Keep running; the index just stops refreshing.
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != Extension {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				idx.logger.Debug("script changed, reloading pages", "file", event.Name)
				if err := idx.Load(); err != nil {
					idx.logger.Error("page reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			idx.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
