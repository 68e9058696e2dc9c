package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies one of the six analytics event kinds.
type Type string

// The closed set of analytics event types.
const (
	PageViewed       Type = "page_viewed"
	ProductViewed    Type = "product_viewed"
	CollectionViewed Type = "collection_viewed"
	CartViewed       Type = "cart_viewed"
	CartUpdated      Type = "cart_updated"
	CustomEvent      Type = "custom_event"
)

// Types returns all event types in a stable order.
func Types() []Type {
	return []Type{
		PageViewed,
		ProductViewed,
		CollectionViewed,
		CartViewed,
		CartUpdated,
		CustomEvent,
	}
}

// Valid reports whether t is one of the six known event types.
func (t Type) Valid() bool {
	switch t {
	case PageViewed, ProductViewed, CollectionViewed, CartViewed, CartUpdated, CustomEvent:
		return true
	}
	return false
}

// String returns the wire name of the type.
func (t Type) String() string {
	return string(t)
}

// Metadata contains common envelope metadata fields.
type Metadata struct {
	EventID   string    `json:"id"`
	EventType Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ShopID    string    `json:"shop_id,omitempty"`
	VisitorID string    `json:"visitor_id,omitempty"`
}

// Envelope is a single published event: metadata plus the typed payload.
// Envelopes are immutable once created.
type Envelope struct {
	Meta    Metadata `json:"metadata"`
	Payload Payload  `json:"payload"`
}

// ID returns the unique event identifier.
func (e Envelope) ID() string {
	return e.Meta.EventID
}

// Type returns the event type, derived from the payload.
func (e Envelope) Type() Type {
	return e.Meta.EventType
}

// Timestamp returns when the event was created.
func (e Envelope) Timestamp() time.Time {
	return e.Meta.Timestamp
}

// Option configures envelope creation.
type Option func(*Metadata)

// WithEventID sets a specific event ID (default: auto-generated UUID).
func WithEventID(id string) Option {
	return func(m *Metadata) {
		m.EventID = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(m *Metadata) {
		m.Timestamp = t
	}
}

// WithShopID attaches the shop the event belongs to.
func WithShopID(id string) Option {
	return func(m *Metadata) {
		m.ShopID = id
	}
}

// WithVisitorID attaches the visitor the event belongs to.
func WithVisitorID(id string) Option {
	return func(m *Metadata) {
		m.VisitorID = id
	}
}

// New creates an envelope around a payload. The event type is taken from the
// payload, never supplied separately, so type and payload cannot disagree.
func New(payload Payload, opts ...Option) Envelope {
	meta := Metadata{
		EventID:   uuid.New().String(),
		EventType: payload.Type(),
		Timestamp: time.Now(),
	}

	for _, opt := range opts {
		opt(&meta)
	}

	return Envelope{
		Meta:    meta,
		Payload: payload,
	}
}

// Handler processes a delivered event.
type Handler interface {
	// Handle processes an event. A non-nil error is logged and counted by
	// the dispatcher but never propagated to the publisher.
	Handle(ctx context.Context, evt Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Envelope) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt Envelope) error {
	return f(ctx, evt)
}
