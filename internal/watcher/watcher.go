package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the input directory tree and delivers batches of
// settled file paths at the configured interval.
type Watcher struct {
	inputDir  string
	interval  time.Duration
	coalescer *Coalescer
	fsw       *fsnotify.Watcher
	logger    *slog.Logger
}

// Option configures the Watcher.
type Option func(*Watcher)

// WithDebounceWindow overrides the event debounce window.
func WithDebounceWindow(d time.Duration) Option {
	return func(w *Watcher) {
		w.coalescer = NewCoalescer(d, d)
	}
}

// New creates a watcher over inputDir that flushes a batch every
// interval.
func New(inputDir string, interval time.Duration, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher; %w", err)
	}

	w := &Watcher{
		inputDir:  inputDir,
		interval:  interval,
		coalescer: NewCoalescer(500*time.Millisecond, 2*time.Second),
		fsw:       fsw,
		logger:    logger.With("component", "watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Scan lists every regular file under dir, skipping hidden entries.
// Paths come back sorted by the walk order, so runs are deterministic.
func Scan(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q; %w", dir, err)
	}
	return files, nil
}

// Run watches until the context is cancelled, calling handle with each
// non-empty batch of created or modified files. Deletes are logged and
// dropped; the pipeline only ingests existing files.
func (w *Watcher) Run(ctx context.Context, handle func([]string)) error {
	if err := w.addRecursive(w.inputDir); err != nil {
		return err
	}
	defer w.fsw.Close()
	defer w.coalescer.Stop()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var batch []string
	seen := make(map[string]bool)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		handle(batch)
		batch = nil
		seen = make(map[string]bool)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleRaw(raw)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("fsnotify error", "error", err)

		case event, ok := <-w.coalescer.Events():
			if !ok {
				return nil
			}
			if event.Type == EventDelete {
				w.logger.Debug("input file removed", "path", event.Path)
				continue
			}
			if !seen[event.Path] {
				seen[event.Path] = true
				batch = append(batch, event.Path)
			}

		case <-ticker.C:
			flush()
		}
	}
}

func (w *Watcher) handleRaw(raw fsnotify.Event) {
	if isEditorNoise(raw.Name) {
		return
	}

	// New directories join the watch set.
	if raw.Has(fsnotify.Create) {
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(raw.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", raw.Name, "error", err)
			}
			return
		}
	}

	var eventType EventType
	switch {
	case raw.Has(fsnotify.Remove) || raw.Has(fsnotify.Rename):
		eventType = EventDelete
	case raw.Has(fsnotify.Create):
		eventType = EventCreate
	case raw.Has(fsnotify.Write):
		eventType = EventModify
	default:
		return
	}

	w.coalescer.Add(Event{Path: raw.Name, Type: eventType, Timestamp: time.Now()})
}

// addRecursive watches dir and every subdirectory.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to add watch", "path", path, "error", err)
		}
		return nil
	})
}

// isEditorNoise filters transient editor artifacts: vim swap and
// backup files, emacs auto-saves.
func isEditorNoise(path string) bool {
	name := filepath.Base(path)
	switch {
	case strings.HasSuffix(name, ".swp"), strings.HasSuffix(name, ".swo"):
		return true
	case name == "4913":
		return true
	case strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	}
	return false
}
