// Package watcher reruns work when files change, grouping bursts of
// filesystem events with a debouncer.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// Filter reports whether a path is of interest.
type Filter func(path string) bool

// Handler handles a debounced batch of changes.
type Handler func(events []ChangeEvent) error

// Watcher watches files and directories.
//
// Files are watched through their directory, since editors commonly save
// by writing a new file and renaming it over the old one.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger

	mu       sync.RWMutex
	files    map[string]bool
	filters  []Filter
	handlers []Handler
	wg       sync.WaitGroup
}

// New creates a Watcher that waits for delay of quiet before handling a
// batch of changes.
func New(delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fs:        fs,
		debouncer: NewDebouncer(delay),
		logger:    logger.With("component", "watcher"),
		files:     make(map[string]bool),
	}, nil
}

// AddFilter adds a filter. An event is handled only when every filter
// accepts its path.
func (w *Watcher) AddFilter(filter Filter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters = append(w.filters, filter)
}

// AddHandler adds a change handler.
func (w *Watcher) AddHandler(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddFile watches a single file. Once any file is added, events for
// other paths are ignored.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	return w.AddDir(filepath.Dir(abs))
}

// AddDir watches a directory, not recursively.
func (w *Watcher) AddDir(dir string) error {
	if err := w.fs.Add(filepath.Clean(dir)); err != nil {
		return fmt.Errorf("watcher: add %s: %w", dir, err)
	}
	return nil
}

// Start processes events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.watchLoop(ctx)
	}()
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
}

// Stop closes the underlying watcher and waits for the loops to exit.
func (w *Watcher) Stop() error {
	w.debouncer.Stop()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) accept(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.files) > 0 {
		abs, err := filepath.Abs(path)
		if err != nil || !w.files[abs] {
			return false
		}
	}
	for _, filter := range w.filters {
		if !filter(path) {
			return false
		}
	}
	return true
}

func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	if !w.accept(event.Name) {
		return
	}

	change := ChangeEvent{Path: event.Name, Type: eventType(event.Op)}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}
	w.logger.Debug("file changed", "path", change.Path, "type", change.Type)
	w.debouncer.Add(change)
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.mu.RLock()
			handlers := w.handlers
			w.mu.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					w.logger.Error("change handler failed", "error", err)
				}
			}
		}
	}
}

// Debouncer groups rapid changes together. A batch holds the latest
// event per path, sorted by path.
type Debouncer struct {
	delay  time.Duration
	output chan []ChangeEvent

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]ChangeEvent
	stopped bool
}

// NewDebouncer creates a Debouncer emitting after delay of quiet.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		output:  make(chan []ChangeEvent, 10),
		pending: make(map[string]ChangeEvent),
	}
}

// Output returns the channel batches are sent on. It is closed by Stop.
func (d *Debouncer) Output() <-chan []ChangeEvent {
	return d.output
}

// Add records an event and restarts the quiet period.
func (d *Debouncer) Add(event ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending[event.Path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || len(d.pending) == 0 {
		return
	}

	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	clear(d.pending)

	select {
	case d.output <- events:
	default:
		// A slow consumer still has a batch queued; it will rerun anyway.
	}
}

// Stop discards pending events and closes the output channel.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}

// ExtFilter accepts paths with one of the given extensions.
func ExtFilter(exts ...string) Filter {
	return func(path string) bool {
		ext := filepath.Ext(path)
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

// NoTempFilter rejects editor swap and backup files.
func NoTempFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") &&
		!strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".swp")
}
