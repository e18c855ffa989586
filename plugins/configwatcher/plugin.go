// Package configwatcher provides config file monitoring for eventship.
// When enabled, it watches the TOML config file for changes and retunes
// the running client (max batch size, batch interval) without a restart.
package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/eventship"
	"github.com/bft-labs/eventship/pkg/log"
)

// fileTunables is the subset of the config file the watcher acts on.
// Pointer fields distinguish absent keys from zero values; absent keys
// leave the current setting alone.
type fileTunables struct {
	MaxBatchSize  *int    `toml:"max_batch_size"`
	BatchInterval *string `toml:"batch_interval"`
}

// Plugin implements config file watching. It monitors the eventship TOML
// config file and applies tunable changes to the attached client.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	client   *eventship.Client
	logger   eventship.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the TOML config file to watch.
	// Default: $HOME/.eventship/config.toml
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Path == "" {
		cfg.Path = defaultConfigPath()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".eventship", "config.toml")
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts the file watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg eventship.PluginConfig) error {
	p.mu.Lock()
	p.client = cfg.Client
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" {
		p.logger.Warn("config watcher disabled: no config file path")
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the file watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches the config file's directory for changes. Watching the
// directory rather than the file survives editors that replace the file
// with a rename.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher", log.Err(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("config watcher: failed to watch directory", log.Err(err))
		return
	}

	filename := filepath.Base(p.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, p.reload)
}

// reload re-parses the config file and applies tunable changes to the client.
func (p *Plugin) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.logger.Error("config watcher: read config file", log.Err(err))
		return
	}

	var ft fileTunables
	if err := toml.Unmarshal(data, &ft); err != nil {
		p.logger.Error("config watcher: parse config file", log.Err(err))
		return
	}

	if ft.MaxBatchSize != nil {
		if err := p.client.SetMaxBatchSize(*ft.MaxBatchSize); err != nil {
			p.logger.Warn("config watcher: rejected max batch size",
				log.Int("max_batch_size", *ft.MaxBatchSize), log.Err(err))
		} else {
			p.logger.Info("config watcher: applied max batch size",
				log.Int("max_batch_size", *ft.MaxBatchSize))
		}
	}

	if ft.BatchInterval != nil {
		d, err := time.ParseDuration(*ft.BatchInterval)
		if err != nil {
			p.logger.Warn("config watcher: invalid batch interval",
				log.String("batch_interval", *ft.BatchInterval), log.Err(err))
			return
		}
		if err := p.client.SetBatchInterval(d); err != nil {
			p.logger.Warn("config watcher: rejected batch interval",
				log.Duration("batch_interval", d), log.Err(err))
		} else {
			p.logger.Info("config watcher: applied batch interval",
				log.Duration("batch_interval", d))
		}
	}
}

// Ensure Plugin implements eventship.Plugin.
var _ eventship.Plugin = (*Plugin)(nil)
