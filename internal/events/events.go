// Package events publishes directory change notifications. Publishing is
// best-effort: the directory operation is already durable by the time an
// event goes out.
package events

import "context"

const (
	KeyProfileCreated = "profile.created"
	KeyProfileDeleted = "profile.deleted"
	KeyBookingCreated = "booking.created"
	KeyBookingDeleted = "booking.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Noop drops every event; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, v any) error { return nil }
