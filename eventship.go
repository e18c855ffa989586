// Package eventship provides an in-process batching client for analytics
// events.
//
// Callers submit discrete events; the client accumulates them in a FIFO
// queue and periodically (or on demand) flushes them as bounded-size batches
// to a remote ingestion endpoint. Delivery is at-most-once, best-effort: a
// failed send is dropped by default, and queued events are lost at shutdown.
//
// Example usage:
//
//	cfg := eventship.DefaultConfig()
//	cfg.WriteKey = "your-write-key"
//	client, err := eventship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	client.Track(map[string]any{"event": "Signed Up", "userId": "u-1"})
//	client.Flush(context.Background())
package eventship

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	httpAdapter "github.com/bft-labs/eventship/internal/adapters/http"
	logAdapter "github.com/bft-labs/eventship/internal/adapters/log"
	"github.com/bft-labs/eventship/internal/app"
	"github.com/bft-labs/eventship/internal/domain"
	"github.com/bft-labs/eventship/internal/ports"
)

// Event is an opaque analytics payload submitted for eventual delivery.
type Event = domain.Event

// EventType discriminates the variant of an event.
type EventType = domain.Type

// Known event types. The batching core treats all types uniformly.
const (
	Track    = domain.TypeTrack
	Identify = domain.TypeIdentify
	Screen   = domain.TypeScreen
	Alias    = domain.TypeAlias
	Group    = domain.TypeGroup
	Page     = domain.TypePage
)

// NewEvent builds an event of the given type with a fresh message ID and a
// UTC timestamp. Use it when the type is only known at runtime; otherwise the
// per-type Client helpers are more convenient.
func NewEvent(t EventType, payload map[string]any) Event {
	return domain.NewEvent(t, payload)
}

// FailurePolicy decides what happens to a batch whose send failed.
type FailurePolicy = domain.FailurePolicy

// Failure policies.
const (
	DropOnFailure    = domain.DropOnFailure
	RequeueOnFailure = domain.RequeueOnFailure
)

// ParseFailurePolicy converts a configuration string ("drop" or "requeue")
// into a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	return domain.ParseFailurePolicy(s)
}

// Sentinel errors, checkable with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// Client is an event batching client that can be embedded in applications.
// Use New() to create an instance, then Start() to begin batching.
type Client struct {
	config   Config
	opts     options
	tunables *app.Tunables

	lifecycle *app.Lifecycle
	sender    ports.BatchSender
	logger    ports.Logger
	emitter   *eventEmitterWrapper
	plugins   []Plugin

	mu      sync.RWMutex
	batcher *app.Batcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new Client with the given configuration.
// The instance is created in StateStopped; call Start() to begin batching.
// If cfg.InstanceID is set, the client is registered and retrievable with
// Instance(). Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	lifecycle := app.NewLifecycle(logger, emitter)

	sender := httpAdapter.NewBatchSender(o.httpClient, logger)

	c := &Client{
		config:    cfg,
		opts:      o,
		tunables:  app.NewTunables(cfg.MaxBatchSize, cfg.BatchInterval),
		lifecycle: lifecycle,
		sender:    sender,
		logger:    logger,
		emitter:   emitter,
		plugins:   o.plugins,
	}

	if err := register(cfg.InstanceID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Start begins event batching in the background.
// Returns immediately after starting the worker goroutine.
// Returns an error if already running or if a plugin fails to initialize.
// The provided context is used for the lifetime of the batching worker.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.ctx = runCtx
	c.cancel = cancel
	c.lifecycle.SetCancel(cancel)

	// A worker is one-shot; each Start gets a fresh one so a stopped client
	// can be restarted.
	c.batcher = app.NewBatcher(app.BatcherConfig{
		Metadata: ports.SendMetadata{
			WriteKey:   c.config.WriteKey,
			Endpoint:   c.config.Endpoint,
			InstanceID: c.config.InstanceID,
			Hostname:   hostname(),
			OSArch:     runtime.GOOS + "/" + runtime.GOARCH,
		},
		FailurePolicy: c.config.FailurePolicy,
	}, c.tunables, c.sender, c.logger, c.emitter)

	pluginCfg := PluginConfig{
		Client:     c,
		InstanceID: c.config.InstanceID,
		Endpoint:   c.config.Endpoint,
		Logger:     c.logger,
	}
	for _, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	batcher := c.batcher
	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()

		if err := c.lifecycle.TransitionTo(app.StateRunning, "worker starting"); err != nil {
			c.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := batcher.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("worker error", ports.Err(err))
			_ = c.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the client. Queued events that have not been
// flushed are lost; call Flush first if they matter. Waits up to 30 seconds
// before forcing shutdown. Returns nil on graceful shutdown,
// ErrShutdownTimeout if forced.
func (c *Client) Stop() error {
	c.mu.Lock()

	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Shutdown plugins (in reverse order)
	shutdownCtx := context.Background()
	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			c.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return fromAppState(c.lifecycle.State())
}

// Enqueue appends an event to the tail of the queue. It never blocks beyond
// handing the event to the worker and never returns an error; if the client
// is not running, the event is dropped with a warning.
func (c *Client) Enqueue(e Event) {
	c.mu.RLock()
	b := c.batcher
	c.mu.RUnlock()

	if b == nil {
		c.logger.Warn("event dropped, client not started",
			ports.String("messageId", e.MessageID),
			ports.String("type", string(e.Type)))
		return
	}
	b.Enqueue(e)
}

// Track enqueues a track event with the given payload.
func (c *Client) Track(payload map[string]any) { c.Enqueue(domain.NewEvent(domain.TypeTrack, payload)) }

// Identify enqueues an identify event with the given payload.
func (c *Client) Identify(payload map[string]any) {
	c.Enqueue(domain.NewEvent(domain.TypeIdentify, payload))
}

// Screen enqueues a screen event with the given payload.
func (c *Client) Screen(payload map[string]any) {
	c.Enqueue(domain.NewEvent(domain.TypeScreen, payload))
}

// Alias enqueues an alias event with the given payload.
func (c *Client) Alias(payload map[string]any) { c.Enqueue(domain.NewEvent(domain.TypeAlias, payload)) }

// GroupEvent enqueues a group event with the given payload.
func (c *Client) GroupEvent(payload map[string]any) {
	c.Enqueue(domain.NewEvent(domain.TypeGroup, payload))
}

// PageEvent enqueues a page event with the given payload.
func (c *Client) PageEvent(payload map[string]any) {
	c.Enqueue(domain.NewEvent(domain.TypePage, payload))
}

// Flush synchronously sends the entire current queue contents as one batch,
// bypassing MaxBatchSize, and returns after the send attempt completes. The
// resulting batch may exceed the remote endpoint's per-request limits; that
// risk is the caller's. An empty queue issues no send. Send failures follow
// the configured failure policy and are not returned; Flush errors only on
// a canceled context or a client that is not running.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.RLock()
	b := c.batcher
	c.mu.RUnlock()

	if b == nil {
		return domain.ErrNotRunning
	}
	return b.Flush(ctx)
}

// SetMaxBatchSize retunes the scheduled-tick batch size cap at runtime.
// The worker reads it on each tick.
func (c *Client) SetMaxBatchSize(n int) error {
	return c.tunables.SetMaxBatchSize(n)
}

// SetBatchInterval retunes the tick interval at runtime. The running worker
// picks it up when it schedules its next tick.
func (c *Client) SetBatchInterval(d time.Duration) error {
	return c.tunables.SetBatchInterval(d)
}

// MaxBatchSize returns the current scheduled-tick batch size cap.
func (c *Client) MaxBatchSize() int {
	return c.tunables.MaxBatchSize()
}

// BatchInterval returns the current tick interval.
func (c *Client) BatchInterval() time.Duration {
	return c.tunables.BatchInterval()
}

// hostname returns the current hostname.
func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
