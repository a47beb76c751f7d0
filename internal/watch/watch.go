// Package watch is the filesystem-watcher consumer described alongside
// the core: it is not part of the index/search/context algorithm, but
// it is the thing that keeps an on-disk index current between explicit
// `index` runs. It collapses bursts of writes into a single debounced
// callback and skips writes that didn't actually change file content.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeSet is one debounced batch: files written or created, and
// files removed. A file can appear in at most one of the two.
type ChangeSet struct {
	Changed []string
	Deleted []string
}

// Matcher decides whether a path is in scope for watching at all
// (index.include/exclude, .gitignore, extension filters all collapse
// into this one predicate so Watcher stays config-agnostic).
type Matcher func(path string) bool

const (
	defaultDebounce   = 500 * time.Millisecond
	defaultMaxDirs    = 2000
	defaultMaxDepth   = 20
)

var alwaysSkipDirs = map[string]bool{
	".git": true, "node_modules": true, ".bobbin": true,
}

// Watcher watches a set of root directories recursively and invokes a
// callback once per debounce window with everything that changed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	matcher  Matcher
	debounce time.Duration
	maxDirs  int
	maxDepth int

	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}

	mu          sync.Mutex
	changed     map[string]bool
	deleted     map[string]bool
	contentHash map[string]string

	timerMu sync.Mutex
	timer   *time.Timer

	dirCountMu sync.Mutex
	dirCount   int

	stopOnce sync.Once
}

// Option configures a Watcher at construction time.
type Option func(*Watcher)

// WithDebounce overrides the default 500ms quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New builds a Watcher rooted at each of dirs, recursively, filtered by
// matcher.
func New(dirs []string, matcher Matcher, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:         fsw,
		matcher:     matcher,
		debounce:    defaultDebounce,
		maxDirs:     defaultMaxDirs,
		maxDepth:    defaultMaxDepth,
		doneCh:      make(chan struct{}),
		changed:     make(map[string]bool),
		deleted:     make(map[string]bool),
		contentHash: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range dirs {
		if err := w.addTree(dir, 0); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start runs the event loop in a background goroutine, invoking
// callback at most once per debounce window. Start returns immediately;
// the loop stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context, callback func(ChangeSet)) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.run(callback)
}

// Stop halts the event loop and releases the underlying fsnotify
// watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run(callback func(ChangeSet)) {
	defer close(w.doneCh)
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev, fire)

		case <-fire:
			w.flush(callback)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, fire chan struct{}) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name, 0); err != nil {
				log.Printf("watch: failed to watch new directory %s: %v", ev.Name, err)
			}
			return
		}
	}

	if !w.matcher(ev.Name) {
		return
	}

	switch {
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		w.mu.Lock()
		delete(w.changed, ev.Name)
		delete(w.contentHash, ev.Name)
		w.deleted[ev.Name] = true
		w.mu.Unlock()
		w.resetTimer(fire)

	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		hash, err := hashFile(ev.Name)
		if err != nil {
			// File may have been removed between the event firing and
			// the read; treat as a no-op rather than guessing.
			return
		}
		w.mu.Lock()
		if w.contentHash[ev.Name] == hash {
			w.mu.Unlock()
			return
		}
		w.contentHash[ev.Name] = hash
		delete(w.deleted, ev.Name)
		w.changed[ev.Name] = true
		w.mu.Unlock()
		w.resetTimer(fire)
	}
}

func (w *Watcher) flush(callback func(ChangeSet)) {
	w.mu.Lock()
	if len(w.changed) == 0 && len(w.deleted) == 0 {
		w.mu.Unlock()
		return
	}
	set := ChangeSet{
		Changed: keys(w.changed),
		Deleted: keys(w.deleted),
	}
	w.changed = make(map[string]bool)
	w.deleted = make(map[string]bool)
	w.mu.Unlock()

	if callback != nil {
		callback(set)
	}
}

func (w *Watcher) resetTimer(fire chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) addTree(root string, depth int) error {
	if depth > w.maxDepth {
		return fmt.Errorf("watch: max depth %d exceeded at %s", w.maxDepth, root)
	}
	if alwaysSkipDirs[filepath.Base(root)] {
		return nil
	}

	w.dirCountMu.Lock()
	if w.dirCount >= w.maxDirs {
		n := w.dirCount
		w.dirCountMu.Unlock()
		return fmt.Errorf("watch: directory limit reached (%d of %d)", n, w.maxDirs)
	}
	w.dirCountMu.Unlock()

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("watch: failed to watch %s: %w", root, err)
	}
	w.dirCountMu.Lock()
	w.dirCount++
	w.dirCountMu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() || alwaysSkipDirs[entry.Name()] {
			continue
		}
		if err := w.addTree(filepath.Join(root, entry.Name()), depth+1); err != nil {
			log.Printf("watch: %v", err)
		}
	}
	return nil
}

func hashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
