package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RebuildFunc regenerates outputs after the watched file changed.
type RebuildFunc func(ctx context.Context) error

// Watcher reruns a rebuild whenever one file changes. Bursts of events within
// the debounce window collapse into a single rebuild.
type Watcher struct {
	path     string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *slog.Logger

	// ready is closed once the directory is being watched.
	ready chan struct{}
}

// New creates a Watcher for path.
func New(path string, debounce time.Duration, rebuild RebuildFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself so editors that save by rename are still seen.
// Rebuild failures are logged and watching continues. Run may be called only
// once per Watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching grammar file", "path", w.path, "debounce", w.debounce)
	close(w.ready)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("grammar file event", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("rebuild failed", "path", w.path, "error", err)
			}
		}
	}
}

// relevant reports whether ev may have changed the watched file's content.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
