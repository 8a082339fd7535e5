package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the YAML config file when it changes and notifies
// callbacks with the new configuration. Invalid reloads are logged and
// ignored.
type Watcher struct {
	loader   Loader
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	target   string
	debounce time.Duration

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	closeOnce sync.Once
	done      chan struct{}
}

// NewWatcher watches loader.FilePath. The directory is watched rather than
// the file so editors that replace the file on save are still seen.
func NewWatcher(loader Loader, initial *Config, logger *zap.Logger) (*Watcher, error) {
	if loader.FilePath == "" {
		return nil, errors.New("config watcher requires a config file")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	target, err := filepath.Abs(loader.FilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	return &Watcher{
		loader:   loader,
		logger:   logger.Named("config"),
		watcher:  fw,
		target:   target,
		debounce: defaultDebounce,
		current:  initial,
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers fn to run after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run processes file events until ctx is canceled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != w.target {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("config reload rejected", zap.String("file", w.target), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("file", w.target))
	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

// LevelUpdater returns a callback that applies Logging.Level to level.
func LevelUpdater(level zap.AtomicLevel, logger *zap.Logger) func(*Config) {
	return func(cfg *Config) {
		lvl, err := cfg.LogLevel()
		if err != nil {
			return
		}
		if lvl != level.Level() {
			level.SetLevel(lvl)
			if logger != nil {
				logger.Info("log level changed", zap.String("level", lvl.String()))
			}
		}
	}
}
