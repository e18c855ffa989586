package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (EVENTSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("write-key", os.Getenv("EVENTSHIP_WRITE_KEY"), &cfg.WriteKey)
	s.setString("endpoint", os.Getenv("EVENTSHIP_ENDPOINT"), &cfg.Endpoint)
	s.setString("instance-id", os.Getenv("EVENTSHIP_INSTANCE_ID"), &cfg.InstanceID)
	s.setString("input", os.Getenv("EVENTSHIP_INPUT"), &cfg.Input)
	s.setString("failure-policy", os.Getenv("EVENTSHIP_FAILURE_POLICY"), &cfg.FailurePolicy)

	if err := s.setDuration("batch-interval", os.Getenv("EVENTSHIP_BATCH_INTERVAL"), &cfg.BatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("EVENTSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-batch-size", os.Getenv("EVENTSHIP_MAX_BATCH_SIZE"), &cfg.MaxBatchSize); err != nil {
		return err
	}

	s.setBoolFromString("verbose", os.Getenv("EVENTSHIP_VERBOSE"), &cfg.Verbose)

	return nil
}
