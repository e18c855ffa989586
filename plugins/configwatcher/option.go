package configwatcher

import "github.com/bft-labs/eventship"

// WithConfigWatcher returns an eventship Option that enables config file
// watching. When enabled, the plugin monitors the TOML config file and
// retunes the running client when max_batch_size or batch_interval change.
//
// Usage:
//
//	c, err := eventship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/etc/eventship/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) eventship.Option {
	plugin := New(cfg)
	return eventship.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns an eventship Option that enables config
// watching with default settings ($HOME/.eventship/config.toml, debounce
// 100ms).
//
// Usage:
//
//	c, err := eventship.New(cfg, configwatcher.WithDefaultConfigWatcher())
func WithDefaultConfigWatcher() eventship.Option {
	return WithConfigWatcher(DefaultConfig())
}
