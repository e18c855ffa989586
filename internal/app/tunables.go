package app

import (
	"sync/atomic"
	"time"

	"github.com/bft-labs/eventship/internal/domain"
)

// Default tunable values. The remote endpoint enforces its own out-of-band
// limits (500KB per batch, 32KB per item, ~50 req/s); callers tune batch
// size and interval to stay under them.
const (
	DefaultMaxBatchSize  = 100
	DefaultBatchInterval = 2 * time.Second
)

// Tunables holds the batching parameters the worker reads at tick and flush
// time. They are not owned by the core: the client, or a config watcher, may
// retune them while the worker runs, and the new values take effect on the
// next tick.
type Tunables struct {
	maxBatchSize  atomic.Int64
	batchInterval atomic.Int64 // nanoseconds
}

// NewTunables creates a Tunables holder, substituting defaults for
// non-positive values.
func NewTunables(maxBatchSize int, batchInterval time.Duration) *Tunables {
	t := &Tunables{}
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	if batchInterval <= 0 {
		batchInterval = DefaultBatchInterval
	}
	t.maxBatchSize.Store(int64(maxBatchSize))
	t.batchInterval.Store(int64(batchInterval))
	return t
}

// MaxBatchSize returns the current scheduled-tick batch size cap.
func (t *Tunables) MaxBatchSize() int {
	return int(t.maxBatchSize.Load())
}

// SetMaxBatchSize updates the batch size cap. It takes effect on the next tick.
func (t *Tunables) SetMaxBatchSize(n int) error {
	if n <= 0 {
		return domain.ErrInvalidConfig
	}
	t.maxBatchSize.Store(int64(n))
	return nil
}

// BatchInterval returns the current tick interval.
func (t *Tunables) BatchInterval() time.Duration {
	return time.Duration(t.batchInterval.Load())
}

// SetBatchInterval updates the tick interval. The running worker picks it up
// when it schedules its next tick.
func (t *Tunables) SetBatchInterval(d time.Duration) error {
	if d <= 0 {
		return domain.ErrInvalidConfig
	}
	t.batchInterval.Store(int64(d))
	return nil
}
