package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/eventship/internal/domain"
	"github.com/bft-labs/eventship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockSender records every batch it is invoked with. It can be configured to
// fail the first failN sends, to sleep per send, and it tracks whether two
// sends ever overlapped in time.
type mockSender struct {
	mu      sync.Mutex
	batches []domain.Batch

	failN int32
	delay time.Duration

	inflight   atomic.Int32
	overlapped atomic.Bool
	failures   atomic.Int32
}

func (s *mockSender) Send(ctx context.Context, batch domain.Batch, md ports.SendMetadata) error {
	if s.inflight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	defer s.inflight.Add(-1)

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if s.failures.Load() < s.failN {
		s.failures.Add(1)
		return errors.New("remote rejected batch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
	return nil
}

func (s *mockSender) Batches() []domain.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Batch{}, s.batches...)
}

func (s *mockSender) SendCount() int {
	return len(s.Batches())
}

func (s *mockSender) EventCount() int {
	n := 0
	for _, b := range s.Batches() {
		n += b.Size()
	}
	return n
}

// noticeSender wraps mockSender with a transport notice channel.
type noticeSender struct {
	mockSender
	notices chan ports.TransportNotice
}

func (s *noticeSender) TransportNotices() <-chan ports.TransportNotice {
	return s.notices
}

// mockEmitter records send event callbacks.
type mockEmitter struct {
	mu        sync.Mutex
	successes int
	errs      []error
	requeued  []bool
}

func (m *mockEmitter) OnSendSuccess(eventCount int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes++
}

func (m *mockEmitter) OnSendError(err error, eventCount int, requeued bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	m.requeued = append(m.requeued, requeued)
}

func startBatcher(t *testing.T, b *Batcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("batcher did not stop")
		}
	})
	return cancel
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func trackEvent(i int) domain.Event {
	e := domain.NewEvent(domain.TypeTrack, map[string]any{"seq": i})
	e.MessageID = fmt.Sprintf("msg-%d", i)
	return e
}

// A long interval keeps the scheduled tick out of tests that only exercise
// enqueue/flush.
const noTick = time.Hour

func TestBatcher_FlushBypassesSizeCap(t *testing.T) {
	sender := &mockSender{}
	tun := NewTunables(100, noTick)
	b := NewBatcher(BatcherConfig{MailboxSize: 512}, tun, sender, mockLogger{}, nil)
	startBatcher(t, b)

	for i := 0; i < 250; i++ {
		b.Enqueue(trackEvent(i))
	}

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}

	batches := sender.Batches()
	if len(batches) != 1 {
		t.Fatalf("send count = %d, want 1", len(batches))
	}
	if batches[0].Size() != 250 {
		t.Errorf("batch size = %d, want 250", batches[0].Size())
	}
	for i, e := range batches[0].Events {
		if e.MessageID != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("batch[%d] = %s, want msg-%d", i, e.MessageID, i)
		}
	}

	// Queue is empty afterward: a second flush issues no send.
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush() = %v, want nil", err)
	}
	if got := sender.SendCount(); got != 1 {
		t.Errorf("send count after empty flush = %d, want 1", got)
	}
}

func TestBatcher_EmptyQueueFlushIsNoop(t *testing.T) {
	sender := &mockSender{}
	b := NewBatcher(BatcherConfig{}, NewTunables(100, noTick), sender, mockLogger{}, nil)
	startBatcher(t, b)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}
	if got := sender.SendCount(); got != 0 {
		t.Errorf("send count = %d, want 0", got)
	}
}

func TestBatcher_TickRespectsSizeCapAndOrder(t *testing.T) {
	sender := &mockSender{}
	tun := NewTunables(10, 50*time.Millisecond)
	b := NewBatcher(BatcherConfig{}, tun, sender, mockLogger{}, nil)
	startBatcher(t, b)

	for i := 0; i < 25; i++ {
		b.Enqueue(trackEvent(i))
	}

	waitFor(t, 5*time.Second, func() bool { return sender.EventCount() == 25 })

	var emitted []domain.Event
	for _, batch := range sender.Batches() {
		if batch.Size() > 10 {
			t.Errorf("tick batch size = %d, want <= 10", batch.Size())
		}
		emitted = append(emitted, batch.Events...)
	}

	// Concatenation of all emitted batches equals enqueue order.
	for i, e := range emitted {
		if e.MessageID != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("emitted[%d] = %s, want msg-%d", i, e.MessageID, i)
		}
	}

	// First tick must have taken exactly the cap and left the remainder.
	if first := sender.Batches()[0]; first.Size() != 10 {
		t.Errorf("first tick batch size = %d, want 10", first.Size())
	}
}

func TestBatcher_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	sender := &mockSender{}
	b := NewBatcher(BatcherConfig{}, NewTunables(1000, noTick), sender, mockLogger{}, nil)
	startBatcher(t, b)

	var wg sync.WaitGroup
	for _, producer := range []string{"a", "b"} {
		wg.Add(1)
		go func(producer string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				e := domain.NewEvent(domain.TypeTrack, nil)
				e.MessageID = fmt.Sprintf("%s-%d", producer, i)
				b.Enqueue(e)
			}
		}(producer)
	}
	wg.Wait()

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}

	batches := sender.Batches()
	if len(batches) != 1 {
		t.Fatalf("send count = %d, want 1", len(batches))
	}

	seen := make(map[string]bool)
	lastSeq := map[string]int{"a": -1, "b": -1}
	for _, e := range batches[0].Events {
		if seen[e.MessageID] {
			t.Fatalf("event %s delivered twice", e.MessageID)
		}
		seen[e.MessageID] = true

		var producer string
		var seq int
		if _, err := fmt.Sscanf(e.MessageID, "a-%d", &seq); err == nil {
			producer = "a"
		} else if _, err := fmt.Sscanf(e.MessageID, "b-%d", &seq); err == nil {
			producer = "b"
		} else {
			t.Fatalf("unexpected message ID %s", e.MessageID)
		}
		if seq <= lastSeq[producer] {
			t.Fatalf("producer %s order violated: %d after %d", producer, seq, lastSeq[producer])
		}
		lastSeq[producer] = seq
	}
	if len(seen) != 100 {
		t.Errorf("delivered %d unique events, want 100", len(seen))
	}
}

func TestBatcher_SlowSendDelaysNextTick(t *testing.T) {
	sender := &mockSender{delay: 60 * time.Millisecond}
	tun := NewTunables(1, 10*time.Millisecond)
	b := NewBatcher(BatcherConfig{}, tun, sender, mockLogger{}, nil)
	startBatcher(t, b)

	for i := 0; i < 4; i++ {
		b.Enqueue(trackEvent(i))
	}

	// Each send outlasts the interval several times over; the timer is
	// rearmed only after the send returns, so sends must never overlap.
	waitFor(t, 5*time.Second, func() bool { return sender.SendCount() >= 3 })

	if sender.overlapped.Load() {
		t.Error("ticks overlapped during a slow send")
	}
}

func TestBatcher_SendFailureIsDroppedByDefault(t *testing.T) {
	sender := &mockSender{failN: 1}
	emitter := &mockEmitter{}
	b := NewBatcher(BatcherConfig{}, NewTunables(100, noTick), sender, mockLogger{}, emitter)
	startBatcher(t, b)

	for i := 0; i < 5; i++ {
		b.Enqueue(trackEvent(i))
	}

	// Failure is not surfaced to the flush caller.
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}

	// Batch was dropped: nothing left for a subsequent flush.
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush() = %v, want nil", err)
	}
	if got := sender.SendCount(); got != 0 {
		t.Errorf("delivered batches = %d, want 0", got)
	}

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	if len(emitter.errs) != 1 {
		t.Fatalf("OnSendError calls = %d, want 1", len(emitter.errs))
	}
	if emitter.requeued[0] {
		t.Error("OnSendError reported requeued = true under drop policy")
	}
}

func TestBatcher_RequeueOnFailureRetainsOrder(t *testing.T) {
	sender := &mockSender{failN: 1}
	b := NewBatcher(
		BatcherConfig{FailurePolicy: domain.RequeueOnFailure},
		NewTunables(100, noTick), sender, mockLogger{}, nil,
	)
	startBatcher(t, b)

	for i := 0; i < 3; i++ {
		b.Enqueue(trackEvent(i))
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}

	// Failed batch went back to the front; later events queue behind it.
	for i := 3; i < 5; i++ {
		b.Enqueue(trackEvent(i))
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush() = %v, want nil", err)
	}

	batches := sender.Batches()
	if len(batches) != 1 {
		t.Fatalf("delivered batches = %d, want 1", len(batches))
	}
	if batches[0].Size() != 5 {
		t.Fatalf("delivered batch size = %d, want 5", batches[0].Size())
	}
	for i, e := range batches[0].Events {
		if e.MessageID != fmt.Sprintf("msg-%d", i) {
			t.Errorf("delivered[%d] = %s, want msg-%d", i, e.MessageID, i)
		}
	}
}

func TestBatcher_TransportNoticesAreDiscarded(t *testing.T) {
	sender := &noticeSender{notices: make(chan ports.TransportNotice, 4)}
	b := NewBatcher(BatcherConfig{}, NewTunables(100, noTick), sender, mockLogger{}, nil)
	startBatcher(t, b)

	sender.notices <- ports.TransportNotice{Kind: "connection-closed", Err: errors.New("tls: use of closed connection")}
	sender.notices <- ports.TransportNotice{Kind: "connection-closed"}

	b.Enqueue(trackEvent(0))
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v, want nil", err)
	}

	if got := sender.EventCount(); got != 1 {
		t.Errorf("delivered events = %d, want 1", got)
	}
	if len(sender.notices) != 0 {
		t.Error("transport notices were not drained")
	}
}

func TestBatcher_StoppedWorkerDropsEnqueueAndFailsFlush(t *testing.T) {
	sender := &mockSender{}
	b := NewBatcher(BatcherConfig{}, NewTunables(100, noTick), sender, mockLogger{}, nil)
	cancel := startBatcher(t, b)

	cancel()
	waitFor(t, 2*time.Second, func() bool {
		select {
		case <-b.stopped:
			return true
		default:
			return false
		}
	})

	// Must not block, must not panic.
	b.Enqueue(trackEvent(0))

	if err := b.Flush(context.Background()); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("Flush() = %v, want ErrNotRunning", err)
	}
	if got := sender.SendCount(); got != 0 {
		t.Errorf("send count = %d, want 0", got)
	}
}

func TestBatcher_FlushHonorsContext(t *testing.T) {
	sender := &mockSender{delay: 200 * time.Millisecond}
	b := NewBatcher(BatcherConfig{}, NewTunables(100, noTick), sender, mockLogger{}, nil)
	startBatcher(t, b)

	b.Enqueue(trackEvent(0))

	// Occupy the worker with a slow flush, then watch a second flush bail
	// out when its context expires while queued behind the first.
	go func() { _ = b.Flush(context.Background()) }()
	waitFor(t, 2*time.Second, func() bool { return sender.inflight.Load() > 0 })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Flush() = %v, want context.DeadlineExceeded", err)
	}
}
