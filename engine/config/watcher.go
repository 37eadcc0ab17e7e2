package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file when it changes on disk.
type Watcher interface {
	// Path returns the absolute path of the watched settings file.
	//
	// Returns:
	//   - string: the settings file path
	Path() string

	// Close stops watching and waits for the event goroutine to exit. No callback runs after
	// Close returns.
	//
	// Returns:
	//   - error: error if the underlying watcher fails to close
	Close() error
}

type watcher struct {
	mu *sync.Mutex

	path     string
	debounce time.Duration
	onChange func(Settings)

	fs     *fsnotify.Watcher
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

var _ Watcher = &watcher{}

// NewWatcher watches the directory holding path, so editors that replace the file by renaming
// are still seen. Bursts of events within the debounce window trigger a single reload. A file that
// fails to decode or validate is logged and ignored; the caller keeps its previous settings.
//
// Parameters:
//   - path: the settings file to watch
//   - debounce: quiet period after the last event before reloading
//   - onChange: called from the watcher goroutine with each successfully reloaded Settings
//
// Returns:
//   - Watcher: the running watcher
//   - error: error if the path cannot be resolved or the watch cannot be installed
func NewWatcher(path string, debounce time.Duration, onChange func(Settings)) (Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path %s: %w", path, err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &watcher{
		mu:       &sync.Mutex{},
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		fs:       fs,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcher) Path() string {
	return w.path
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("[Config] watcher error: %v", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		log.Printf("[Config] ignoring reload: %v", err)
		return
	}
	log.Printf("[Config] reloaded %s", w.path)
	if w.onChange != nil {
		w.onChange(s)
	}
}
