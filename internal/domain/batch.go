package domain

// Batch is a finite, ordered list of events sent together in one outbound call.
type Batch struct {
	// Events in enqueue order.
	Events []Event
}

// NewBatch creates a new empty batch.
func NewBatch() Batch {
	return Batch{Events: make([]Event, 0)}
}

// Size returns the number of events in the batch.
func (b Batch) Size() int {
	return len(b.Events)
}

// Empty returns true if the batch has no events.
func (b Batch) Empty() bool {
	return len(b.Events) == 0
}
