// Package watcher watches the configuration file and triggers hot reloads.
// Events are debounced and filtered through a content hash so editor save
// dances (rename, chmod, double writes) produce a single reload.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/spframe/spframe/internal/config"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher reloads the config file on change and hands the parsed result to
// a callback.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)

	fsWatcher *fsnotify.Watcher

	mu          sync.Mutex
	reloadTimer *time.Timer
	lastHash    string
}

// NewWatcher creates a watcher for configPath. reloadCallback runs on the
// watcher goroutine after every materially changed, successfully parsed
// config.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		fsWatcher:      fsWatcher,
	}
	if data, errRead := os.ReadFile(configPath); errRead == nil {
		w.lastHash = hashBytes(data)
	}
	return w, nil
}

// Start begins watching until ctx is cancelled. The parent directory is
// watched rather than the file itself so atomic-rename saves keep working.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsWatcher.Add(filepath.Dir(w.configPath)); err != nil {
		return err
	}
	go w.run(ctx)
	log.Debugf("watcher: watching %s", w.configPath)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		_ = w.fsWatcher.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
	}
	w.reloadTimer = time.AfterFunc(reloadDebounce, w.reloadIfChanged)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
		w.reloadTimer = nil
	}
}

// reloadIfChanged re-reads the config and fires the callback when the file
// content actually changed and still parses.
func (w *Watcher) reloadIfChanged() {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("watcher: failed to read config: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debug("watcher: ignoring empty config write")
		return
	}

	newHash := hashBytes(data)
	w.mu.Lock()
	unchanged := w.lastHash != "" && w.lastHash == newHash
	if !unchanged {
		w.lastHash = newHash
	}
	w.mu.Unlock()
	if unchanged {
		log.Debug("watcher: config content unchanged, skipping reload")
		return
	}

	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("watcher: config changed but failed to load, keeping previous: %v", err)
		return
	}
	log.Info("watcher: config changed, reloading")
	w.reloadCallback(cfg)
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
