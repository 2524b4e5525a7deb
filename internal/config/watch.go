package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Holder keeps the current configuration for long-running processes.
type Holder struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewHolder wraps cfg.
func NewHolder(cfg *Config) *Holder {
	return &Holder{cfg: cfg}
}

// Current returns the active configuration.
func (h *Holder) Current() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Set replaces the active configuration.
func (h *Holder) Set(cfg *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
}

const reloadDelay = 250 * time.Millisecond

// Watcher reloads configuration when the config or token file changes.
type Watcher struct {
	holder   *Holder
	watcher  *fsnotify.Watcher
	files    map[string]bool
	onChange func(*Config)
	delay    time.Duration
}

// NewWatcher watches the directories of the config and token files held by h.
// onChange, if set, runs after every successful reload.
func NewWatcher(h *Holder, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cfg := h.Current()
	w := &Watcher{
		holder:   h,
		watcher:  fw,
		files:    map[string]bool{},
		onChange: onChange,
		delay:    reloadDelay,
	}

	dirs := map[string]bool{}
	for _, f := range []string{cfg.Path, cfg.TokenFile} {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logger.Debug("config: cannot watch %s: %v", dir, err)
		}
	}
	return w, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("config: %s changed (%s)", ev.Name, ev.Op)
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watch error: %v", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		abs = ev.Name
	}
	return w.files[abs]
}

func (w *Watcher) reload() {
	cur := w.holder.Current()
	cfg, err := Load(cur.Path)
	if err != nil {
		logger.Warn("config: reload failed, keeping previous settings: %v", err)
		return
	}
	w.holder.Set(cfg)
	logger.Info("config: reloaded %s", cfg.Path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
