package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-validates the configuration on explicit filesystem reload
// events, without exposing any global mutable singleton: callers hold the
// Watcher and call Current() to read the latest validated snapshot.
type Watcher struct {
	path    string
	mu      sync.RWMutex
	current *Config
	fsw     *fsnotify.Watcher
	onError func(error)
}

// NewWatcher loads path once and wires an fsnotify watcher for future
// explicit reloads. onError is called (non-blocking) when a reload fails
// validation; the previous valid Config is retained.
func NewWatcher(path string, onError func(error)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{path: path, current: cfg, fsw: fsw, onError: onError}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
}

// Current returns the latest validated configuration snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching for filesystem changes.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
