// Package domain contains the core domain entities and value objects for eventship.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (HTTP, logging) and contains only
// the queueing and batching rules.
//
// # Entities
//
//   - [Event]: An opaque analytics payload tagged with a variant type
//   - [Batch]: An ordered list of events sent together in one outbound call
//   - [Queue]: The FIFO event queue with prefix batch extraction
//
// # Invariants
//
// The queue never reorders events. A batch extracted for sending is always a
// strict prefix of the queue at extraction time, events never duplicate
// across two extracted batches, and an event leaves the queue at the moment
// it is chosen for a batch regardless of whether the subsequent send
// succeeds. [Queue.Requeue] is the single, explicit exception used by the
// requeue-on-failure policy.
package domain
