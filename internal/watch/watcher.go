// Package watch notifies callers when individual files change on disk.
// It watches each file's parent directory, so editors that save by
// rename-and-replace are still seen, and debounces bursts of events.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long a file must stay quiet before its callback
// fires. Every new event restarts the wait.
const DebounceInterval = 50 * time.Millisecond

// Watcher watches a set of files.
type Watcher struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger
	done   chan struct{}

	mu       sync.Mutex
	stopped  bool
	handlers map[string]func(path string) // by absolute file path
	dirs     map[string]bool
	timers   map[string]*time.Timer
}

// New creates a watcher and starts its event loop.
func New(logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		fw:       fw,
		logger:   logger,
		done:     make(chan struct{}),
		handlers: make(map[string]func(string)),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}
	go w.loop()
	return w, nil
}

// Watch calls onChange with the file's absolute path whenever it is
// written, created, removed or renamed. Watching the same file again
// replaces its callback.
func (w *Watcher) Watch(path string, onChange func(path string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}
	if !w.dirs[dir] {
		if err := w.fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.handlers[abs] = onChange
	w.logger.Debug("watching file", "path", abs)
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// schedule (re)starts the quiet-period timer of a watched path, so a burst
// of events ends in one callback after the last of them.
func (w *Watcher) schedule(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if _, ok := w.handlers[path]; !ok {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(DebounceInterval)
		return
	}
	w.timers[path] = time.AfterFunc(DebounceInterval, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	fn := w.handlers[path]
	stopped := w.stopped
	w.mu.Unlock()
	if stopped || fn == nil {
		return
	}
	fn(path)
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	for _, t := range w.timers {
		t.Stop()
	}
	close(w.done)
	return w.fw.Close()
}
