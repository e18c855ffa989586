package eventship

import (
	"fmt"
	"time"

	"github.com/bft-labs/eventship/internal/app"
	"github.com/bft-labs/eventship/internal/domain"
)

// DefaultEndpoint is the default base URL of the ingestion service.
const DefaultEndpoint = "https://api.eventship.io"

// Default batching parameters. The ingestion service enforces out-of-band
// limits of 500KB per batch, 32KB per item, and roughly 50 requests per
// second; tune MaxBatchSize and BatchInterval to stay under them — the
// client does not enforce them itself.
const (
	DefaultMaxBatchSize  = app.DefaultMaxBatchSize
	DefaultBatchInterval = app.DefaultBatchInterval
	DefaultHTTPTimeout   = 30 * time.Second
)

// Config holds the configuration for an event batching client.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// WriteKey is the API credential for the ingestion service. Required.
	WriteKey string

	// Endpoint is the base URL of the ingestion service.
	// Defaults to DefaultEndpoint.
	Endpoint string

	// InstanceID optionally names this client so several independent
	// instances can coexist in one process. Registered instances are
	// retrievable with Instance().
	InstanceID string

	// MaxBatchSize caps how many events a scheduled tick sends in one batch.
	// Explicit flushes bypass the cap. Defaults to DefaultMaxBatchSize.
	MaxBatchSize int

	// BatchInterval is the scheduled tick interval. The timer is
	// self-renewing: each tick rearms only after its send completes.
	// Defaults to DefaultBatchInterval.
	BatchInterval time.Duration

	// HTTPTimeout bounds each outbound send. The batching worker itself
	// imposes no timeout; this is the only protection against a hanging
	// sender blocking the worker. Defaults to DefaultHTTPTimeout.
	HTTPTimeout time.Duration

	// FailurePolicy decides what happens to a batch whose send failed:
	// DropOnFailure (default, at-most-once) or RequeueOnFailure.
	FailurePolicy FailurePolicy
}

// DefaultConfig returns a Config with default values.
// At minimum, you must set WriteKey before calling New.
func DefaultConfig() Config {
	return Config{
		Endpoint:      DefaultEndpoint,
		MaxBatchSize:  DefaultMaxBatchSize,
		BatchInterval: DefaultBatchInterval,
		HTTPTimeout:   DefaultHTTPTimeout,
		FailurePolicy: DropOnFailure,
	}
}

// SetDefaults fills in zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.BatchInterval == 0 {
		c.BatchInterval = DefaultBatchInterval
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate checks the configuration for errors and normalizes derived values.
func (c *Config) Validate() error {
	if c.WriteKey == "" {
		return fmt.Errorf("%w: write key is required", domain.ErrInvalidConfig)
	}
	if c.MaxBatchSize < 0 {
		return fmt.Errorf("%w: max batch size must be positive", domain.ErrInvalidConfig)
	}
	if c.BatchInterval < 0 {
		return fmt.Errorf("%w: batch interval must be positive", domain.ErrInvalidConfig)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http timeout must be positive", domain.ErrInvalidConfig)
	}

	// Ensure no trailing slash
	if len(c.Endpoint) > 0 && c.Endpoint[len(c.Endpoint)-1] == '/' {
		c.Endpoint = c.Endpoint[:len(c.Endpoint)-1]
	}

	return nil
}
