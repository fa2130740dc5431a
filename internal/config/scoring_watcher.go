package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/causelab/causeway/internal/analysis"
	"github.com/causelab/causeway/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// ScoringProvider serves the current analysis configuration and, when a
// scoring file is configured, hot-reloads it on change. Invalid configs
// during reload are logged and skipped; the previous valid config stays
// in effect, so a half-saved file never degrades the service.
type ScoringProvider struct {
	path           string
	debounce       time.Duration
	logger         *logging.Logger
	current        atomic.Pointer[analysis.Config]
	cancel         context.CancelFunc
	stopped        chan struct{}
	mu             sync.Mutex
	debounceTimer  *time.Timer
}

// NewScoringProvider creates a provider. An empty path means "built-in
// defaults only, no watching".
func NewScoringProvider(path string) *ScoringProvider {
	p := &ScoringProvider{
		path:     path,
		debounce: 500 * time.Millisecond,
		logger:   logging.GetLogger("config.scoring"),
	}
	cfg := analysis.DefaultConfig()
	p.current.Store(&cfg)
	return p
}

// Current returns the active analysis configuration. The returned value
// is a copy; callers may adjust per-request fields (e.g. MaxCauses)
// without affecting other requests.
func (p *ScoringProvider) Current() analysis.Config {
	return *p.current.Load()
}

// Start loads the initial scoring file (if configured) and begins
// watching it. Implements lifecycle.Component.
func (p *ScoringProvider) Start(ctx context.Context) error {
	if p.path == "" {
		p.logger.Debug("no scoring config path set, using built-in defaults")
		return nil
	}

	cfg, err := LoadScoringFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to load initial scoring config: %w", err)
	}
	p.current.Store(cfg)
	p.logger.Info("loaded scoring config from %s", p.path)

	watchCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.stopped = make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(p.path); err != nil {
		watcher.Close()
		cancel()
		return fmt.Errorf("failed to watch %s: %w", p.path, err)
	}

	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Stop stops the watcher. Implements lifecycle.Component.
func (p *ScoringProvider) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name implements lifecycle.Component.
func (p *ScoringProvider) Name() string {
	return "scoring-config"
}

// watchLoop consumes fsnotify events until the context is cancelled.
// Write bursts from editor save sequences are coalesced with a debounce
// timer before reloading.
func (p *ScoringProvider) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(p.stopped)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("file watcher error: %v", err)
		}
	}
}

func (p *ScoringProvider) scheduleReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
	}
	p.debounceTimer = time.AfterFunc(p.debounce, p.reload)
}

func (p *ScoringProvider) reload() {
	cfg, err := LoadScoringFile(p.path)
	if err != nil {
		p.logger.Warn("ignoring invalid scoring config reload: %v", err)
		return
	}
	p.current.Store(cfg)
	p.logger.Info("reloaded scoring config from %s", p.path)
}
