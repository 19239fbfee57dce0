package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/Swind/go-nav-runner/core"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// TimeoutSetter is implemented by *core.Navigator.
type TimeoutSetter interface {
	SetTimeout(timeout time.Duration)
}

// Watcher reloads a config file when it changes on disk. viper offers no
// way to stop watching, so a Watcher lives as long as the process; targets
// bound to it are skipped once they report closed.
type Watcher struct {
	v      *viper.Viper
	path   string
	logger core.Logger

	mu        sync.RWMutex
	current   Config
	listeners []func(Config)
	reloads   int
}

// Watch loads path and starts watching it. Changes that fail to decode or
// validate are logged and ignored; the previous Config stays in effect.
func Watch(path string, logger core.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch config: empty path")
	}
	if logger == nil {
		logger = core.NewNoOpLogger()
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	w := &Watcher{v: v, path: path, logger: logger, current: cfg}
	v.OnConfigChange(w.changed)
	v.WatchConfig()
	return w, nil
}

// Config returns the latest valid configuration.
func (w *Watcher) Config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reloads returns how many times a change was applied.
func (w *Watcher) Reloads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reloads
}

// OnChange registers fn to run after every applied change.
func (w *Watcher) OnChange(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Bind applies timeout changes to target. A target that also implements
// Closed() bool stops receiving changes once it is closed.
func (w *Watcher) Bind(target TimeoutSetter) {
	closer, _ := target.(interface{ Closed() bool })
	w.OnChange(func(c Config) {
		if closer != nil && closer.Closed() {
			w.logger.Debug("Config change skipped for closed target", core.F("path", w.path))
			return
		}
		target.SetTimeout(c.Timeout())
	})
}

func (w *Watcher) changed(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	cfg, err := decode(w.v)
	if err != nil {
		w.logger.Warn("Config change ignored", core.F("path", w.path), core.F("error", err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.reloads++
	listeners := append([]func(Config){}, w.listeners...)
	w.mu.Unlock()

	w.logger.Info("Config reloaded", core.F("path", w.path), core.F("timeout", cfg.Timeout()))
	for _, fn := range listeners {
		fn(cfg)
	}
}
