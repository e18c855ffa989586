package ports

import (
	"context"

	"github.com/bft-labs/eventship/internal/domain"
)

// BatchSender transmits event batches to the ingestion service.
// Implementations handle serialization, HTTP communication, and authentication.
type BatchSender interface {
	// Send transmits a batch of events to the remote service.
	// Returns nil on success, error on failure. The batching core does not
	// retry; whether a failed batch is dropped or requeued is decided by the
	// core's failure policy.
	Send(ctx context.Context, batch domain.Batch, metadata SendMetadata) error
}

// SendMetadata provides context for the send operation.
// This information is included in HTTP headers for server-side tracking.
type SendMetadata struct {
	// WriteKey is the API credential for the ingestion service.
	WriteKey string

	// Endpoint is the base URL of the ingestion service.
	Endpoint string

	// InstanceID names this client instance when several run in one process.
	InstanceID string

	// Hostname is the submitting host's name.
	Hostname string

	// OSArch is the operating system and architecture (e.g., "linux/amd64").
	OSArch string
}

// TransportNotice is an out-of-band notification bubbling up from a sender's
// transport machinery, such as the remote end closing a connection. Notices
// carry no batching-relevant information.
type TransportNotice struct {
	// Kind identifies the notice (e.g., "connection-closed").
	Kind string

	// Err is the underlying transport error, if any.
	Err error
}

// TransportNotifier is optionally implemented by senders whose transport
// produces asynchronous notices. The batching core observes and discards
// them so they never disturb its control loop.
type TransportNotifier interface {
	// TransportNotices returns the channel on which notices are delivered.
	TransportNotices() <-chan TransportNotice
}
