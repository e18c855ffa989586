package app

import (
	"context"
	"time"

	"github.com/bft-labs/eventship/internal/domain"
	"github.com/bft-labs/eventship/internal/ports"
)

// defaultMailboxSize bounds how many commands can be in flight between
// producers and the worker. Producers briefly block on a full mailbox until
// the worker catches up; the queue itself stays unbounded.
const defaultMailboxSize = 256

// BatcherConfig contains configuration for the batching worker.
type BatcherConfig struct {
	// Metadata accompanies every send operation.
	Metadata ports.SendMetadata

	// FailurePolicy decides whether failed batches are dropped or requeued.
	FailurePolicy domain.FailurePolicy

	// MailboxSize overrides the command channel capacity when positive.
	MailboxSize int
}

type commandKind int

const (
	cmdEnqueue commandKind = iota
	cmdFlush
)

// command is a message to the worker. Enqueue commands are fire-and-forget;
// flush commands carry a done channel the worker closes once the send
// attempt has completed.
type command struct {
	kind  commandKind
	event domain.Event
	done  chan struct{}
}

// SendEventEmitter is called on send success or failure.
type SendEventEmitter interface {
	OnSendSuccess(eventCount int, duration time.Duration)
	OnSendError(err error, eventCount int, requeued bool)
}

// Batcher accepts events, holds them in a FIFO queue, and emits bounded
// batches to a sender either on a self-renewing timer or on explicit flush.
//
// A single worker goroutine (Run) owns the queue and the sender. Every
// mutation — applying an enqueue, extracting a tick batch, flushing — is
// serialized through the worker's mailbox, so the queue is never touched by
// two goroutines at once and no locks are needed. The worker imposes no
// timeout of its own on sends: a hanging sender blocks ticks, flushes, and
// the application of pending enqueues until it returns.
type Batcher struct {
	tunables *Tunables
	sender   ports.BatchSender
	logger   ports.Logger
	emitter  SendEventEmitter
	policy   domain.FailurePolicy
	metadata ports.SendMetadata

	queue   *domain.Queue
	mailbox chan command
	notices <-chan ports.TransportNotice
	stopped chan struct{}
}

// NewBatcher creates a batching worker with the given dependencies. If the
// sender exposes transport notices, the worker drains and discards them.
func NewBatcher(
	cfg BatcherConfig,
	tunables *Tunables,
	sender ports.BatchSender,
	logger ports.Logger,
	emitter SendEventEmitter,
) *Batcher {
	size := cfg.MailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}

	b := &Batcher{
		tunables: tunables,
		sender:   sender,
		logger:   logger,
		emitter:  emitter,
		policy:   cfg.FailurePolicy,
		metadata: cfg.Metadata,
		queue:    domain.NewQueue(),
		mailbox:  make(chan command, size),
		stopped:  make(chan struct{}),
	}
	if notifier, ok := sender.(ports.TransportNotifier); ok {
		b.notices = notifier.TransportNotices()
	}
	return b
}

// Run executes the worker loop until the context is canceled. The tick timer
// is self-renewing: each tick schedules the next one only after its own send
// completes, so inter-tick spacing is interval plus send duration and ticks
// never overlap. Queue contents still held at cancellation are lost; callers
// that care flush first.
func (b *Batcher) Run(ctx context.Context) error {
	defer close(b.stopped)

	timer := time.NewTimer(b.tunables.BatchInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-b.mailbox:
			switch cmd.kind {
			case cmdEnqueue:
				b.queue.Enqueue(cmd.event)
			case cmdFlush:
				b.send(ctx, b.queue.TakeAll())
				close(cmd.done)
			}

		case notice := <-b.notices:
			// Transport-level noise (e.g. the remote closing a kept-alive
			// connection) is not a batching event and produces no state change.
			b.logger.Debug("transport notice discarded",
				ports.String("kind", notice.Kind),
				ports.Err(notice.Err))

		case <-timer.C:
			b.send(ctx, b.queue.TakeBatch(b.tunables.MaxBatchSize()))
			timer.Reset(b.tunables.BatchInterval())
		}
	}
}

// Enqueue hands an event to the worker and returns. It never reports an
// error: the hand-off either lands in the mailbox or, if the worker has
// already stopped, the event is dropped with a warning.
func (b *Batcher) Enqueue(e domain.Event) {
	select {
	case b.mailbox <- command{kind: cmdEnqueue, event: e}:
	case <-b.stopped:
		b.logger.Warn("event dropped, batcher stopped",
			ports.String("messageId", e.MessageID),
			ports.String("type", string(e.Type)))
	}
}

// Flush sends the entire current queue contents as one batch, bypassing the
// scheduled-tick size cap, and blocks until the send attempt completes. An
// empty queue issues no send. Send failures follow the failure policy and
// are not surfaced here; Flush only errors when the context is canceled or
// the worker is not running.
func (b *Batcher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case b.mailbox <- command{kind: cmdFlush, done: done}:
	case <-b.stopped:
		return domain.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-b.stopped:
		return domain.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send performs one send attempt. Failures never terminate the worker: they
// are logged, reported to the emitter, and the batch is dropped or requeued
// per the failure policy.
func (b *Batcher) send(ctx context.Context, batch domain.Batch) {
	if batch.Empty() {
		return
	}

	start := time.Now()
	err := b.sender.Send(ctx, batch, b.metadata)
	duration := time.Since(start)

	if err != nil {
		requeued := b.policy == domain.RequeueOnFailure
		if requeued {
			b.queue.Requeue(batch)
		}
		b.logger.Error("send failed",
			ports.Err(err),
			ports.Int("events", batch.Size()),
			ports.Bool("requeued", requeued))
		if b.emitter != nil {
			b.emitter.OnSendError(err, batch.Size(), requeued)
		}
		return
	}

	b.logger.Info("sent batch",
		ports.Int("events", batch.Size()),
		ports.Duration("duration", duration))
	if b.emitter != nil {
		b.emitter.OnSendSuccess(batch.Size(), duration)
	}
}
