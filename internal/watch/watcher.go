// Package watch monitors drop directories for new roster exports and hands
// each settled file to a handler.
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
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Config holds the watcher configuration.
type Config struct {
	Directories []string
	Recursive   bool
	// Debounce is the quiet period after the last write before a file is handled.
	Debounce time.Duration
	// Match selects the files to handle. Nil accepts every .xls file.
	Match func(path string) bool
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Handler is called once per settled matching file.
type Handler func(ctx context.Context, path string) error

// Watcher monitors directories for file changes and triggers the handler.
type Watcher struct {
	Config  Config
	Handler Handler

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
	// handling serializes handler calls so two drops never write the output at once.
	handling sync.Mutex
}

// Status represents the current watcher status.
type Status struct {
	Directories []string `json:"directories"`
	EventCount  int      `json:"eventCount"`
	Processed   int      `json:"processed"`
	Failed      int      `json:"failed"`
}

// New creates a new Watcher with the given configuration.
func New(config Config, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Match == nil {
		config.Match = IsXLS
	}

	return &Watcher{
		Config:   config,
		Handler:  handler,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the configured directories. It blocks until the context is cancelled.
// The underlying watcher is closed on every return path.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirectories(); err != nil {
		w.watcher.Close()
		return err
	}

	log.Info().Strs("dirs", w.Config.Directories).Dur("debounce", w.Config.Debounce).Msg("watching for roster exports")

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			log.Info().Msg("stopping watcher")
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) addDirectories() error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if IsTemp(path) || !w.Config.Match(path) {
		return
	}

	// restart the quiet period on every write
	w.mu.Lock()
	if prev, ok := w.debounce[path]; ok {
		prev.Stop()
	}
	op := event.Op.String()
	var timer *time.Timer
	timer = time.AfterFunc(w.Config.Debounce, func() {
		w.mu.Lock()
		current := w.release(path, timer)
		w.mu.Unlock()
		if current {
			w.processFile(ctx, path, op)
		}
	})
	w.debounce[path] = timer
	w.mu.Unlock()
}

// release drops the pending entry for path if timer still owns it. A timer
// that fired while a newer write replaced it reports false. Callers hold w.mu.
func (w *Watcher) release(path string, timer *time.Timer) bool {
	if w.debounce[path] != timer {
		return false
	}
	delete(w.debounce, path)
	return true
}

func (w *Watcher) processFile(ctx context.Context, path, operation string) {
	if ctx.Err() != nil {
		return
	}

	evt := Event{
		Time:      time.Now(),
		Path:      path,
		Operation: operation,
		Status:    "processed",
	}

	if w.Handler == nil {
		evt.Status = "skipped"
		log.Info().Str("file", path).Msg("matched file (no handler)")
	} else {
		w.handling.Lock()
		err := w.Handler(ctx, path)
		w.handling.Unlock()
		if err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			log.Error().Err(err).Str("file", path).Msg("could not process file")
		} else {
			log.Info().Str("file", path).Msg("processed file")
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{
		Directories: w.Config.Directories,
		EventCount:  len(w.events),
	}
	for _, e := range w.events {
		switch e.Status {
		case "processed":
			s.Processed++
		case "error":
			s.Failed++
		}
	}
	return s
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

// IsXLS reports whether path has a legacy Excel extension.
func IsXLS(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xls")
}

// IsTemp reports whether path is an editor lock or hidden file.
func IsTemp(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".")
}
