package config

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloadCallback is invoked after a successful reload, with the config in
// effect before and after the change.
type ReloadCallback func(old, new *Config) error

// ConfigReloader watches configPath (via fsnotify) and SIGHUP, reloading
// and re-validating the configuration on either trigger. Fields that the
// codec cannot safely change without a restart, notably the key scope,
// are rejected by validateReloadSafety rather than applied.
type ConfigReloader struct {
	path     string
	logger   *logrus.Logger
	watcher  *fsnotify.Watcher
	sighup   chan os.Signal
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	current  *Config
	onReload ReloadCallback
}

// NewConfigReloader creates a reloader seeded with initial. An empty path
// disables file watching; SIGHUP handling is always active.
func NewConfigReloader(path string, initial *Config, logger *logrus.Logger) (*ConfigReloader, error) {
	r := &ConfigReloader{
		path:    path,
		logger:  logger,
		sighup:  make(chan os.Signal, 1),
		done:    make(chan struct{}),
		current: initial,
	}

	if path != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("config reloader: new watcher: %w", err)
		}
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("config reloader: watch %s: %w", path, err)
		}
		r.watcher = watcher
	}

	signal.Notify(r.sighup, syscall.SIGHUP)
	return r, nil
}

// SetOnReloadCallback registers the callback invoked after each reload.
func (r *ConfigReloader) SetOnReloadCallback(cb ReloadCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = cb
}

// GetCurrentConfig returns a copy of the config currently in effect.
func (r *ConfigReloader) GetCurrentConfig() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	current := *r.current
	return &current
}

// Start blocks, watching for file change events and SIGHUP until Stop is
// called. Call it from its own goroutine.
func (r *ConfigReloader) Start() {
	r.wg.Add(1)
	defer r.wg.Done()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if r.watcher != nil {
		events = r.watcher.Events
		errs = r.watcher.Errors
	}

	for {
		select {
		case <-r.done:
			return
		case <-r.sighup:
			r.logger.Info("config reloader: received SIGHUP, reloading")
			r.reload()
		case event, ok := <-events:
			if !ok {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.logger.WithField("path", event.Name).Info("config reloader: file changed, reloading")
				r.reload()
			}
		case err, ok := <-errs:
			if !ok {
				continue
			}
			r.logger.WithError(err).Warn("config reloader: watcher error")
		}
	}
}

// Stop terminates Start's loop and releases the watcher.
func (r *ConfigReloader) Stop() {
	signal.Stop(r.sighup)
	select {
	case <-r.done:
		return
	default:
		close(r.done)
	}
	if r.watcher != nil {
		r.watcher.Close()
	}
	r.wg.Wait()
}

func (r *ConfigReloader) reload() {
	newConfig, err := LoadConfig(r.path)
	if err != nil {
		r.logger.WithError(err).Warn("config reloader: reload failed, keeping previous config")
		return
	}

	r.mu.Lock()
	oldConfig := r.current
	if err := r.validateReloadSafety(oldConfig, newConfig); err != nil {
		r.mu.Unlock()
		r.logger.WithError(err).Warn("config reloader: rejected unsafe reload")
		return
	}
	r.current = newConfig
	cb := r.onReload
	r.mu.Unlock()

	if cb != nil {
		if err := cb(oldConfig, newConfig); err != nil {
			r.logger.WithError(err).Warn("config reloader: reload callback failed")
		}
	}
}

// validateReloadSafety rejects changes to fields the running process
// cannot safely pick up without restarting: the configured identity
// scope, which is bound into every Decryptor at construction, and the
// key source path, which the key-file refresher is started with.
func (r *ConfigReloader) validateReloadSafety(old, new *Config) error {
	if old.Scope != "" && new.Scope != "" && old.Scope != new.Scope {
		return fmt.Errorf("scope cannot be changed during hot reload")
	}
	if old.KeySource.Path != "" && new.KeySource.Path != "" && old.KeySource.Path != new.KeySource.Path {
		return fmt.Errorf("key_source.path cannot be changed during hot reload")
	}
	return nil
}
