package rules

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Watcher reloads a rule file whenever it changes on disk and hands the new
// rule set to a callback. A file that fails to load keeps the previous rules
// in place.
type Watcher struct {
	mu       sync.RWMutex
	path     string
	current  *Rules
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(*Rules)
}

// NewWatcher loads path and prepares a watcher for it.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	r, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: path, current: r, logger: logger}, nil
}

// Rules returns the most recently loaded rule set.
func (w *Watcher) Rules() *Rules {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// SetOnChange sets the function called after a successful reload.
func (w *Watcher) SetOnChange(fn func(*Rules)) {
	w.onChange = fn
}

// Start begins watching. The parent directory is watched so that editors
// which replace the file on save are still seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})

	go w.watchLoop()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	return nil
}

func (w *Watcher) watchLoop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	r, err := Load(w.path)
	if err != nil {
		w.logger.Warn("keeping previous rules", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = r
	w.mu.Unlock()

	w.logger.Info("rules reloaded", zap.String("path", w.path), zap.String("version", r.Version))
	if w.onChange != nil {
		w.onChange(r)
	}
}

// Stop stops watching.
func (w *Watcher) Stop() {
	if w.stopChan != nil {
		close(w.stopChan)
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
}
