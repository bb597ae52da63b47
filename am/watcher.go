package am

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/logger"
)

// ConfigWatcher reloads the configuration when one of its files changes.
// Directories are watched rather than files, so a file that does not exist
// yet is picked up when created, and editors that save by renaming a
// temporary file are seen too. A reload only happens when a file's content
// actually differs from what was last loaded.
type ConfigWatcher struct {
	paths    map[string]bool // cleaned path -> watched
	watcher  *fsnotify.Watcher
	debounce time.Duration
	loader   func() (*Config, error)

	mu        sync.Mutex
	callbacks []ReloadCallback
	digests   map[string][sha256.Size]byte
	timer     *time.Timer
	started   bool
	done      chan struct{}
}

// ReloadCallback is called with each successfully reloaded config
type ReloadCallback func(*Config) error

// NewConfigWatcher watches the given config files. Empty paths and paths
// whose directory does not exist are skipped; at least one must remain.
func NewConfigWatcher(paths ...string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	cw := &ConfigWatcher{
		paths:    make(map[string]bool),
		watcher:  w,
		debounce: 300 * time.Millisecond,
		digests:  make(map[string][sha256.Size]byte),
		done:     make(chan struct{}),
		loader: func() (*Config, error) {
			Reset()
			return Load()
		},
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		dir := filepath.Dir(p)
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				logger.Debugw("Config directory not watchable", "dir", dir, logger.FieldError, err)
				continue
			}
			dirs[dir] = true
		}
		cw.paths[p] = true
		cw.digests[p] = digest(p)
	}
	if len(cw.paths) == 0 {
		w.Close()
		return nil, errors.Newf("none of %v can be watched", paths)
	}
	return cw, nil
}

// digest hashes the file's content. A missing file hashes like an empty one.
func digest(path string) [sha256.Size]byte {
	data, _ := os.ReadFile(path)
	return sha256.Sum256(data)
}

// Paths returns the watched config files.
func (cw *ConfigWatcher) Paths() []string {
	out := make([]string, 0, len(cw.paths))
	for p := range cw.paths {
		out = append(out, p)
	}
	return out
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.started {
		return
	}
	cw.started = true
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watchLoop() {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if !cw.paths[name] || isBackupFile(name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debugw("Config file event", "file", name, "op", event.Op.String())
			cw.schedule()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

// schedule coalesces a burst of events into one check.
func (cw *ConfigWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		if !cw.changed() {
			return
		}
		if err := cw.reload(); err != nil {
			logger.Errorw("Config reload failed", logger.FieldError, err)
		}
	})
}

// changed refreshes the digests and reports whether any file differs.
func (cw *ConfigWatcher) changed() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	changed := false
	for p := range cw.paths {
		d := digest(p)
		if d != cw.digests[p] {
			cw.digests[p] = d
			changed = true
		}
	}
	return changed
}

// reload loads the configuration and calls every callback. An invalid
// config is reported and the callbacks are not called.
func (cw *ConfigWatcher) reload() error {
	cfg, err := cw.loader()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}
	logger.Infow("Configuration reloaded", "files", len(cw.paths))

	cw.mu.Lock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			logger.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching and waits for the watch loop to exit
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	started := cw.started
	cw.mu.Unlock()
	err := cw.watcher.Close()
	if started {
		<-cw.done
	}
	return err
}

// isBackupFile matches the .backN copies saveConfig leaves next to a file.
func isBackupFile(path string) bool {
	return strings.HasPrefix(filepath.Ext(path), ".back")
}
