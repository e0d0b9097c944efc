// Package watch observes the cache directory and reports changes, including
// edits made by other processes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/notecache/pkg/logger"
	"github.com/okian/notecache/pkg/metrics"
)

const defaultDebounce = 50 * time.Millisecond

// ErrStarted is returned by Start on a watcher that is already running.
var ErrStarted = errors.New("watcher already started")

// Watcher coalesces bursts of filesystem events in one directory into a
// single onChange call.
type Watcher struct {
	dir      string
	onChange func(ctx context.Context)
	debounce time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a watcher for dir. onChange runs on the watcher goroutine.
func New(dir string, onChange func(ctx context.Context), opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The watcher stops when ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return ErrStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx, fsw, w.done)
	w.logger.Info(ctx, "watching cache directory", logger.String("dir", w.dir))
	return nil
}

// Running reports whether the watcher goroutine is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Stop ends watching and waits for the goroutine to exit. Safe to call
// more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw, cancel, done := w.fsw, w.cancel, w.done
	w.fsw, w.cancel = nil, nil
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	cancel()
	err := fsw.Close()
	<-done
	return err
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			kind := kindOf(ev)
			metrics.RecordWatchEvent(kind)
			w.logger.Debug(ctx, "cache directory event", logger.String("file", ev.Name), logger.String("kind", kind))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "cache directory watch error", logger.Error(err))
		case <-timerC:
			timerC = nil
			if w.onChange != nil {
				w.onChange(ctx)
			}
		}
	}
}

func kindOf(ev fsnotify.Event) string {
	switch {
	case ev.Has(fsnotify.Create):
		return "create"
	case ev.Has(fsnotify.Remove):
		return "remove"
	case ev.Has(fsnotify.Rename):
		return "rename"
	case ev.Has(fsnotify.Write):
		return "write"
	case ev.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "other"
	}
}
