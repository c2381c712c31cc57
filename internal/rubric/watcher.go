package rubric

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hirescore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a rubric file into a Store when the file changes
type Watcher struct {
	mu sync.Mutex

	path  string
	store *Store

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	lastModTime   time.Time

	stopChan   chan struct{}
	reloadChan chan struct{}
	onReload   func(*Rubric, error)

	logger  *errors.Logger
	running bool
}

// NewWatcher creates a watcher for path. onReload, if set, is called after every reload attempt.
func NewWatcher(path string, store *Store, debounceDelay time.Duration, onReload func(*Rubric, error), logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &Watcher{
		path:          path,
		store:         store,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching. The file's directory is watched as well so atomic
// replace-by-rename writes are seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("rubric watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.fsWatcher = fsWatcher
	w.running = true
	go w.watchLoop()

	w.logger.Info("Rubric file watcher started", "file", w.path, "debounce_delay", w.debounceDelay)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close rubric file watcher")
		return err
	}

	w.logger.Info("Rubric file watcher stopped", "file", w.path)
	return nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isRelevant(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Rubric file watcher error")

		case <-w.reloadChan:
			if w.hasChanged() {
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) hasChanged() bool {
	stat, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if stat.ModTime().Equal(w.lastModTime) {
		return false
	}
	w.lastModTime = stat.ModTime()
	return true
}

// reload keeps the previous rubric active when the new file does not normalize.
func (w *Watcher) reload() {
	r, err := LoadFile(w.path)
	if err == nil {
		err = w.store.Set(r)
	}

	if err != nil {
		w.logger.LogError(err, "Rejected rubric file change, keeping previous rubric", "file", w.path)
	} else {
		w.logger.Info("Rubric reloaded", "file", w.path, "sections", r.Len())
	}

	if w.onReload != nil {
		w.onReload(r, err)
	}
}
