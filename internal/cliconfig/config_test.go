package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input != "-" {
		t.Errorf("Input = %q, want \"-\"", cfg.Input)
	}
	if cfg.MaxBatchSize != 100 {
		t.Errorf("MaxBatchSize = %d, want 100", cfg.MaxBatchSize)
	}
	if cfg.BatchInterval != 2*time.Second {
		t.Errorf("BatchInterval = %v, want 2s", cfg.BatchInterval)
	}
	if cfg.FailurePolicy != "drop" {
		t.Errorf("FailurePolicy = %q, want drop", cfg.FailurePolicy)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.WriteKey = "wk"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing write key", func(c *Config) { c.WriteKey = "" }, true},
		{"missing input", func(c *Config) { c.Input = "" }, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"negative interval", func(c *Config) { c.BatchInterval = -time.Second }, true},
		{"bogus policy", func(c *Config) { c.FailurePolicy = "panic" }, true},
		{"requeue policy", func(c *Config) { c.FailurePolicy = "requeue" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
