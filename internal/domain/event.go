package domain

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates the variant of an analytics event.
// The batching core treats all types uniformly; the type travels with the
// event so the ingestion service can route it.
type Type string

const (
	TypeTrack    Type = "track"
	TypeIdentify Type = "identify"
	TypeScreen   Type = "screen"
	TypeAlias    Type = "alias"
	TypeGroup    Type = "group"
	TypePage     Type = "page"
)

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeTrack, TypeIdentify, TypeScreen, TypeAlias, TypeGroup, TypePage:
		return true
	}
	return false
}

// Event is an opaque analytics payload submitted for eventual delivery.
// Events are immutable once enqueued.
type Event struct {
	// MessageID uniquely identifies the event across the process lifetime.
	MessageID string `json:"messageId"`

	// Type is the event variant (track, identify, screen, alias, group, page).
	Type Type `json:"type"`

	// Timestamp is the UTC time the event was constructed.
	Timestamp time.Time `json:"timestamp"`

	// Payload is the caller-supplied event body. The core never inspects it.
	Payload map[string]any `json:"payload,omitempty"`
}

// NewEvent constructs an event of the given type, stamping a fresh message ID
// and the current UTC time.
func NewEvent(t Type, payload map[string]any) Event {
	return Event{
		MessageID: uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
