// Package watch monitors the tracker's data files for changes so the CLI
// can refresh live views when another process edits the frames on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event.
type EventType string

// Event types.
const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventRemove EventType = "remove"
	EventRename EventType = "rename"
)

// Event represents a file system event for a watched data file.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Config holds configuration for the file watcher.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDuration: 200 * time.Millisecond,
		BufferSize:       64,
	}
}

// Watcher monitors data files for changes. It wraps fsnotify with
// debouncing, since atomic writes produce a burst of create, write and
// rename events for a single logical save.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    Config
	events    chan Event
	errors    chan error

	// Files being watched, keyed by absolute path. The parent
	// directories are registered with fsnotify so renames into place
	// are observed.
	files map[string]struct{}

	// Debouncing state
	pending   map[string]pendingEvent
	pendingMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

type pendingEvent struct {
	eventType EventType
	timestamp time.Time
}

// NewWatcher creates a new file watcher with the given configuration.
func NewWatcher(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		events:    make(chan Event, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		files:     make(map[string]struct{}),
		pending:   make(map[string]pendingEvent),
		ctx:       ctx,
		cancel:    cancel,
	}

	return w, nil
}

// Watch starts watching the given files for changes. Each file's parent
// directory is registered, so files that do not exist yet still emit a
// create event when they appear. Non-existent directories are skipped
// without error.
func (w *Watcher) Watch(ctx context.Context, files ...string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debounceProcessor()

	return nil
}

// Events returns the channel for receiving watch events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return err
}

// processEvents reads from fsnotify and queues events for debouncing.
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

			if !w.watched(event.Name) {
				continue
			}

			eventType := convertEventType(event.Op)
			if eventType == "" {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = pendingEvent{
				eventType: eventType,
				timestamp: time.Now(),
			}
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Drop error if channel is full
			}
		}
	}
}

// debounceProcessor periodically checks for stable events and emits them.
func (w *Watcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.emitStableEvents()
		}
	}
}

// emitStableEvents checks for events that have been quiet long enough
// and emits them.
func (w *Watcher) emitStableEvents() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	now := time.Now()
	stable := make([]string, 0)

	for path, pending := range w.pending {
		if now.Sub(pending.timestamp) >= w.config.DebounceDuration {
			stable = append(stable, path)
		}
	}

	for _, path := range stable {
		pending := w.pending[path]
		delete(w.pending, path)

		event := Event{
			Path:      path,
			Type:      pending.eventType,
			Timestamp: pending.timestamp,
		}

		select {
		case w.events <- event:
		default:
			// Drop event if channel is full
		}
	}
}

// watched reports whether the path is one of the registered data files.
func (w *Watcher) watched(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func convertEventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreate
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventRemove
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventRename
	default:
		return ""
	}
}
