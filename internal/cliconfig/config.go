// Package cliconfig holds the configuration surface of the eventship CLI:
// defaults, validation, TOML file config, environment variables, and the
// flag-precedence machinery that ties them together (flags beat env, env
// beats file, file beats defaults).
package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/eventship"
)

// Config holds the CLI configuration.
type Config struct {
	WriteKey   string
	Endpoint   string
	InstanceID string

	// Input is the JSON-lines event source: a file path, or "-" for stdin.
	Input string

	MaxBatchSize  int
	BatchInterval time.Duration
	HTTPTimeout   time.Duration

	// FailurePolicy is "drop" or "requeue".
	FailurePolicy string

	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Endpoint:      eventship.DefaultEndpoint,
		Input:         "-",
		MaxBatchSize:  eventship.DefaultMaxBatchSize,
		BatchInterval: eventship.DefaultBatchInterval,
		HTTPTimeout:   eventship.DefaultHTTPTimeout,
		FailurePolicy: "drop",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WriteKey == "" {
		return fmt.Errorf("write-key is required")
	}
	if c.Input == "" {
		return fmt.Errorf("input is required (use \"-\" for stdin)")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.BatchInterval <= 0 {
		return fmt.Errorf("batch interval must be positive")
	}
	if c.FailurePolicy != "drop" && c.FailurePolicy != "requeue" {
		return fmt.Errorf("failure policy must be \"drop\" or \"requeue\", got %q", c.FailurePolicy)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
