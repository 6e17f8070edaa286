// Package watch monitors a directory of judgment texts and reports which
// cases changed, so the corpus can be reprocessed without a full rerun
// being triggered by hand.
package watch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/hanrei/pkg/source"
)

// Status indicates the operational state of a watcher.
type Status string

const (
	// StatusActive indicates changes are being reported.
	StatusActive Status = "active"

	// StatusPaused indicates changes are being ignored.
	StatusPaused Status = "paused"

	// StatusError indicates the last callback failed.
	StatusError Status = "error"

	// StatusStopped indicates the watcher is not running.
	StatusStopped Status = "stopped"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reporting a batch. PDF converters write a text file in several chunks.
const DefaultDebounce = 500 * time.Millisecond

const maxErrors = 10

// StatusInfo describes a watcher.
type StatusInfo struct {
	Directory string    `json:"directory"`
	Status    Status    `json:"status"`
	LastBatch time.Time `json:"last_batch"`
	Batches   int       `json:"batches"`
	Cases     int       `json:"cases"`
	Errors    []string  `json:"errors,omitempty"`
}

// ChangeFunc receives the sorted numbers of cases whose text was created or
// rewritten.
type ChangeFunc func(ctx context.Context, numbers []string) error

// TextWatcher reports changed text files in one directory.
type TextWatcher struct {
	dir      string
	debounce time.Duration
	logger   *zap.Logger

	watcher    *fsnotify.Watcher
	callbacks  []ChangeFunc
	callbackMu sync.RWMutex
	status     StatusInfo
	statusMu   sync.RWMutex
	stopChan   chan struct{}
	done       chan struct{}
	running    bool
	runningMu  sync.Mutex
}

// Option configures a TextWatcher.
type Option func(*TextWatcher)

// WithDebounce sets the quiet period before a batch is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *TextWatcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *TextWatcher) { w.logger = logger }
}

// New creates a watcher over dir. It does nothing until Start.
func New(dir string, opts ...Option) *TextWatcher {
	w := &TextWatcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		status:   StatusInfo{Directory: dir, Status: StatusStopped},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnChange registers a callback for changed cases.
func (w *TextWatcher) OnChange(fn ChangeFunc) {
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins watching. Watching ends when ctx is cancelled or Stop is
// called.
func (w *TextWatcher) Start(ctx context.Context) error {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	w.setStatus(StatusActive)

	go w.watchLoop(ctx)
	return nil
}

// Stop stops watching and waits for the loop to exit. A batch still being
// debounced is dropped.
func (w *TextWatcher) Stop() error {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	if !w.running {
		return fmt.Errorf("watcher is not running")
	}

	close(w.stopChan)
	<-w.done
	w.running = false
	w.setStatus(StatusStopped)
	return nil
}

// Pause makes the watcher ignore changes until Resume.
func (w *TextWatcher) Pause() {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	if w.status.Status != StatusStopped {
		w.status.Status = StatusPaused
	}
}

// Resume undoes Pause.
func (w *TextWatcher) Resume() {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	if w.status.Status == StatusPaused {
		w.status.Status = StatusActive
	}
}

// Status returns a snapshot of the watcher state.
func (w *TextWatcher) Status() StatusInfo {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()
	info := w.status
	info.Errors = append([]string(nil), w.status.Errors...)
	return info
}

func (w *TextWatcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || w.paused() {
				continue
			}
			number, ok := source.NumberFromPath(event.Name)
			if !ok {
				continue
			}
			pending[number] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			numbers := make([]string, 0, len(pending))
			for number := range pending {
				numbers = append(numbers, number)
			}
			clear(pending)
			sort.Strings(numbers)
			w.notify(ctx, numbers)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("text watcher error", zap.String("directory", w.dir), zap.Error(err))
		}
	}
}

func (w *TextWatcher) notify(ctx context.Context, numbers []string) {
	w.logger.Info("texts changed", zap.Strings("numbers", numbers))

	w.statusMu.Lock()
	w.status.LastBatch = time.Now()
	w.status.Batches++
	w.status.Cases += len(numbers)
	w.statusMu.Unlock()

	w.callbackMu.RLock()
	defer w.callbackMu.RUnlock()
	for _, fn := range w.callbacks {
		// A failing callback is recorded and the next batch is still
		// delivered.
		if err := fn(ctx, numbers); err != nil {
			w.logger.Error("change callback failed", zap.Error(err))
			w.recordError(err.Error())
		}
	}
}

func (w *TextWatcher) paused() bool {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()
	return w.status.Status == StatusPaused
}

func (w *TextWatcher) setStatus(status Status) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.Status = status
}

func (w *TextWatcher) recordError(msg string) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()

	w.status.Status = StatusError
	w.status.Errors = append(w.status.Errors, msg)
	if len(w.status.Errors) > maxErrors {
		w.status.Errors = w.status.Errors[len(w.status.Errors)-maxErrors:]
	}
}
