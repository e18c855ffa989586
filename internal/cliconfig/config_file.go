package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WriteKey      string `toml:"write_key"`
	Endpoint      string `toml:"endpoint"`
	InstanceID    string `toml:"instance_id"`
	Input         string `toml:"input"`
	MaxBatchSize  int    `toml:"max_batch_size"`
	BatchInterval string `toml:"batch_interval"`
	HTTPTimeout   string `toml:"http_timeout"`
	FailurePolicy string `toml:"failure_policy"`
	Verbose       *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.eventship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".eventship", "config.toml")
	}
	return ""
}

// FileExists reports whether the given path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("write-key", fc.WriteKey, &cfg.WriteKey)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("instance-id", fc.InstanceID, &cfg.InstanceID)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("failure-policy", fc.FailurePolicy, &cfg.FailurePolicy)

	s.setInt("max-batch-size", fc.MaxBatchSize, &cfg.MaxBatchSize)

	if err := s.setDuration("batch-interval", fc.BatchInterval, &cfg.BatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}
