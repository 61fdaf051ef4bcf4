package project

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a project's marker file and signals when it changes so the
// project can be reloaded. Bursts of filesystem events are debounced into a
// single notification.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	marker    string
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// WatchConfig holds watcher configuration options.
type WatchConfig struct {
	MarkerPath  string
	DebounceDur time.Duration
}

// DefaultWatchConfig returns sensible defaults for watching a marker file.
func DefaultWatchConfig(markerPath string) WatchConfig {
	return WatchConfig{
		MarkerPath:  markerPath,
		DebounceDur: 500 * time.Millisecond,
	}
}

// NewWatcher creates a watcher for the given project marker file.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		marker:    cfg.MarkerPath,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the marker file's directory.
// Returns a channel that receives a signal when the marker changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	// Watch the containing directory; editors often replace the file rather
	// than writing it in place, which drops a watch on the file itself.
	dir := filepath.Dir(w.marker)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Non-blocking send, drop if channel full
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// Keep watching; callers wrap the watcher if they need error
			// visibility.

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.marker)
}
