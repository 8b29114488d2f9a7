// Package watch re-triggers lint runs when sources change. It watches
// directory trees recursively with fsnotify and coalesces bursts of events
// (editors write several times per save) into one batch per quiet period.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 150 * time.Millisecond

// Options filters and paces change notifications.
type Options struct {
	Debounce time.Duration
	// Match reports whether a changed file is interesting. nil accepts all.
	Match func(path string) bool
	// SkipDir reports whether a directory is left unwatched.
	SkipDir func(path string) bool
	// OnError receives watcher errors; nil drops them.
	OnError func(error)
}

// Watcher delivers batches of changed paths.
type Watcher struct {
	fw   *fsnotify.Watcher
	opts Options

	mu     sync.Mutex
	closed bool
}

// New creates a watcher with no roots yet.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fw: fw, opts: opts}, nil
}

// Add watches every directory under each root. A file root watches its
// parent directory, since fsnotify loses single files on atomic saves.
func (w *Watcher) Add(roots ...string) error {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if err := w.fw.Add(filepath.Dir(abs)); err != nil {
				return err
			}
			continue
		}
		if err := w.addTree(abs); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// недоступные каталоги пропускаем
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	return w.opts.SkipDir != nil && w.opts.SkipDir(path)
}

func (w *Watcher) match(path string) bool {
	return w.opts.Match == nil || w.opts.Match(path)
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// paths changed during each quiet period. onChange runs on the Run goroutine,
// so events that arrive meanwhile form the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !w.skipDir(ev.Name) {
						if err := w.addTree(ev.Name); err != nil {
							w.report(err)
						}
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod || !w.match(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.report(err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			onChange(batch)
		}
	}
}

func (w *Watcher) report(err error) {
	if w.opts.OnError != nil && err != nil {
		w.opts.OnError(err)
	}
}

// Close releases the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.fw.Close()
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
