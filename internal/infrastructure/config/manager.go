package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

// ErrRequiresRestart is returned by TryReload when the file changed keys
// that only take effect after a restart. Reloadable keys are still applied.
var ErrRequiresRestart = errors.New("configuration change requires restart")

const defaultDebounce = 250 * time.Millisecond

// ReloadCallback receives the configuration after a successful reload.
type ReloadCallback func(cfg *Config)

// ConfigManager owns the live configuration and reloads it from disk.
type ConfigManager struct {
	path     string
	logger   logger.Logger
	debounce time.Duration

	current atomic.Pointer[Config]

	mu        sync.Mutex // serializes reloads and callback registration
	callbacks []ReloadCallback
}

// NewConfigManager creates a manager seeded with an already loaded config.
func NewConfigManager(path string, initial *Config, log logger.Logger) *ConfigManager {
	m := &ConfigManager{
		path:     path,
		logger:   log,
		debounce: defaultDebounce,
	}
	m.current.Store(initial)
	return m
}

// Get returns the current configuration. Callers must not mutate it.
func (m *ConfigManager) Get() *Config {
	return m.current.Load()
}

// OnReload registers a callback run after reloadable keys change.
func (m *ConfigManager) OnReload(cb ReloadCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// TryReload re-reads the file and applies reloadable keys.
// An invalid file leaves the current configuration untouched.
func (m *ConfigManager) TryReload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Load(m.path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	old := m.current.Load()
	changed := ChangedKeys(old, next)
	if len(changed) == 0 {
		m.logger.Debug("configuration unchanged", "path", m.path)
		return nil
	}

	var reloaded, static []string
	for _, key := range changed {
		if IsReloadable(key) {
			reloaded = append(reloaded, key)
			continue
		}
		static = append(static, key)
		m.logger.Warn("configuration change requires restart",
			"key", key,
			"reason", RestartReason(key),
		)
	}

	if len(reloaded) > 0 {
		merged := *old
		merged.Logging = next.Logging
		merged.Discord.ModeratorRoleID = next.Discord.ModeratorRoleID
		merged.Discord.Prompt = next.Discord.Prompt
		m.current.Store(&merged)

		for _, cb := range m.callbacks {
			cb(&merged)
		}

		m.logger.Info("configuration reloaded", "keys", reloaded)
	}

	if len(static) > 0 {
		return ErrRequiresRestart
	}
	return nil
}

// Watch reloads the configuration whenever the file is written, until ctx
// is cancelled. The parent directory is watched so that editors replacing
// the file by rename are still observed.
func (m *ConfigManager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watching %s: %w", m.path, err)
	}

	target := filepath.Clean(m.path)
	var pending <-chan time.Time

	m.logger.Info("watching configuration file", "path", m.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(m.debounce)
			}

		case <-pending:
			pending = nil
			if err := m.TryReload(); err != nil && !errors.Is(err, ErrRequiresRestart) {
				m.logger.Error("configuration reload failed", "path", m.path, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("configuration watcher error", "error", err)
		}
	}
}
