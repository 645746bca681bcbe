// Package watch monitors a directory for text files and hands them to a
// callback once they settle. It backs the `uread watch` command, which
// converts files to clean UTF-8 as they land.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory and reports new or modified files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	exts     map[string]bool
	debounce time.Duration

	mu   sync.Mutex
	seen map[string]fileState

	// OnFile is invoked after a file stops changing for the debounce
	// window. Returning an error routes to OnError.
	OnFile func(path string) error

	// OnError receives watch and callback failures.
	OnError func(path string, err error)
}

type fileState struct {
	modTime time.Time
	size    int64
}

// New creates a watcher for dir. Only files whose extension appears in
// exts are reported; an empty exts list reports every file.
func New(dir string, exts []string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch: watching %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	return &Watcher{
		watcher:  fsWatcher,
		exts:     extSet,
		debounce: debounce,
		seen:     make(map[string]fileState),
	}, nil
}

// Run starts the watch loop. Blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.wants(path) {
				continue
			}

			// Debounce: editors and copies fire bursts of writes.
			timerMu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				w.handle(path)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError("", err)
			}
		}
	}
}

// wants reports whether path matches the extension filter.
func (w *Watcher) wants(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// handle fires OnFile for path if it actually changed since last seen.
func (w *Watcher) handle(path string) {
	stat, err := os.Stat(path)
	if err != nil {
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}
	if stat.IsDir() {
		return
	}

	w.mu.Lock()
	prev, known := w.seen[path]
	cur := fileState{modTime: stat.ModTime(), size: stat.Size()}
	w.seen[path] = cur
	w.mu.Unlock()

	if known && prev.modTime.Equal(cur.modTime) && prev.size == cur.size {
		return
	}

	if w.OnFile != nil {
		if err := w.OnFile(path); err != nil && w.OnError != nil {
			w.OnError(path, err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
