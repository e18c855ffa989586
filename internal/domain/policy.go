package domain

// FailurePolicy decides what happens to a batch whose send failed.
//
// Delivery is at-most-once, best-effort with DropOnFailure: the batch is
// logged and permanently lost from this process's perspective. This is a
// deliberate simplicity/throughput tradeoff, not a bug. RequeueOnFailure
// puts the failed batch back at the front of the queue so later ticks or
// flushes retry it, which changes the delivery guarantee toward
// at-least-once.
type FailurePolicy int

const (
	// DropOnFailure drops a batch whose send failed. The default.
	DropOnFailure FailurePolicy = iota

	// RequeueOnFailure prepends a failed batch back onto the queue, order
	// preserved, to be retried by subsequent ticks and flushes.
	RequeueOnFailure
)

// String returns a human-readable representation of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case DropOnFailure:
		return "drop"
	case RequeueOnFailure:
		return "requeue"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy converts a configuration string ("drop" or "requeue")
// into a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "drop":
		return DropOnFailure, nil
	case "requeue":
		return RequeueOnFailure, nil
	}
	return DropOnFailure, ErrInvalidConfig
}
