package domain

// Queue is an ordered FIFO sequence of events. Insertion order is the
// guaranteed send order. The queue is unbounded; producers are never
// backpressured.
//
// Queue is not safe for concurrent use. The batching worker owns the queue
// and serializes all access to it.
type Queue struct {
	events []Event
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0)}
}

// Enqueue appends an event to the tail of the queue.
func (q *Queue) Enqueue(e Event) {
	q.events = append(q.events, e)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// TakeBatch removes and returns up to max events from the front of the queue,
// preserving their relative order. The extracted batch is always a strict
// prefix of the queue at extraction time: no reordering, no skipping, no
// duplication. An empty queue yields an empty batch and leaves the queue
// unchanged. max <= 0 takes the entire queue.
func (q *Queue) TakeBatch(max int) Batch {
	n := len(q.events)
	if n == 0 {
		return Batch{}
	}
	if max > 0 && max < n {
		n = max
	}

	taken := make([]Event, n)
	copy(taken, q.events[:n])

	remaining := len(q.events) - n
	copy(q.events, q.events[n:])
	for i := remaining; i < len(q.events); i++ {
		q.events[i] = Event{}
	}
	q.events = q.events[:remaining]

	return Batch{Events: taken}
}

// TakeAll removes and returns the entire queue contents as a single batch,
// regardless of any batch size limit.
func (q *Queue) TakeAll() Batch {
	return q.TakeBatch(0)
}

// Requeue puts a previously extracted batch back at the front of the queue,
// ahead of any events enqueued since extraction. Order within the batch and
// relative to the remaining queue is preserved.
func (q *Queue) Requeue(b Batch) {
	if b.Empty() {
		return
	}
	q.events = append(append(make([]Event, 0, len(b.Events)+len(q.events)), b.Events...), q.events...)
}
