// Package watch re-runs a callback when files under a set of directories
// change. It backs "reserv test --watch".
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Run is given zero.
const DefaultDebounce = 200 * time.Millisecond

// WatcherOps creates file system watchers. Tests substitute a fake.
type WatcherOps interface {
	NewWatcher() (WatcherInstance, error)
}

// WatcherInstance is the subset of fsnotify.Watcher used by Watcher.
type WatcherInstance interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type realWatcherOps struct{}

func (realWatcherOps) NewWatcher() (WatcherInstance, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &realWatcherInstance{w: w}, nil
}

type realWatcherInstance struct {
	w *fsnotify.Watcher
}

func (r *realWatcherInstance) Add(name string) error         { return r.w.Add(name) }
func (r *realWatcherInstance) Close() error                  { return r.w.Close() }
func (r *realWatcherInstance) Events() <-chan fsnotify.Event { return r.w.Events }
func (r *realWatcherInstance) Errors() <-chan error          { return r.w.Errors }

// Watcher runs a callback on file changes.
type Watcher struct {
	ops     WatcherOps
	onError func(error)
	logger  *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithOps replaces the fsnotify backend.
func WithOps(ops WatcherOps) Option {
	return func(w *Watcher) {
		if ops != nil {
			w.ops = ops
		}
	}
}

// WithErrorHandler receives watcher errors and callback errors.
// The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.onError = fn
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher backed by fsnotify unless WithOps says otherwise.
func New(opts ...Option) *Watcher {
	w := &Watcher{
		ops:    realWatcherOps{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) { w.logger.Error("watch error", "error", err) }
	}
	return w
}

// Run calls fn once, then again each time a burst of changes under dirs has
// been quiet for debounce. Each dir is watched recursively, including
// directories created while Run is active. Chmod-only events are ignored. Errors from fn do
// not stop the loop. Run returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, dirs []string, debounce time.Duration, fn func(context.Context) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := w.ops.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := w.addTree(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.call(ctx, fn)

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

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.onError(fmt.Errorf("failed to watch %s: %w", event.Name, err))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			w.onError(err)

		case <-fire:
			fire = nil
			w.call(ctx, fn)
		}
	}
}

// addTree watches dir and every directory below it. Only dir itself must be
// watchable; subtrees that cannot be read are skipped.
func (w *Watcher) addTree(watcher WatcherInstance, dir string) error {
	if err := watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("watching", "dir", dir)

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping", "path", path, "error", err)
			return nil
		}
		if path == dir || !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		w.logger.Debug("watching", "dir", path)
		return nil
	})
}

func (w *Watcher) call(ctx context.Context, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		w.onError(err)
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
