// Package eventbus defines the contract for emitting ledger lifecycle events
// to audit and notification consumers.
package eventbus

import (
	"context"

	"github.com/cashnoteio/cashnote/pkg/domain/events"
)

// HandlerFunc consumes one event. Handler errors are the handler's problem:
// the bus logs and swallows them, they never reach the emitter.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus defines the contract for publishing and subscribing to ledger events.
type Bus interface {
	// Emit dispatches the event to all handlers registered for its type.
	Emit(ctx context.Context, e events.Event) error
	// Register subscribes a handler to an event type.
	Register(eventType string, handler HandlerFunc)
}
