package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/photonicat/simply_analog/internal/logger"
)

// ConfigWatcher reloads the device config file when it changes on disk.
type ConfigWatcher struct {
	configPath   string
	watcher      *fsnotify.Watcher
	reloadChan   chan struct{}
	debounceTime time.Duration
	onReload     func(Config)
}

func NewConfigWatcher(configPath string, onReload func(Config)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return &ConfigWatcher{
		configPath:   absPath,
		watcher:      watcher,
		reloadChan:   make(chan struct{}, 1),
		debounceTime: time.Second,
		onReload:     onReload,
	}, nil
}

// Run watches the config directory until ctx is done. Editors often replace
// the file instead of writing it, so the directory is watched rather than
// the file itself.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	defer cw.watcher.Close()

	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}
	logger.Info("watching device config", "path", cw.configPath)

	configFile := filepath.Base(cw.configPath)
	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				logger.Debug("device config changed", "op", event.Op.String())
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(cw.debounceTime, cw.reload)
			case event.Op&fsnotify.Remove != 0:
				logger.Warn("device config removed", "path", event.Name)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "err", err)
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := loadConfig(cw.configPath)
	if err != nil {
		logger.Error("failed to reload device config", "err", err)
		return
	}
	logger.Info("device config reloaded", "path", cw.configPath)
	cw.onReload(cfg)
}
