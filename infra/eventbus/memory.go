package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/eventbus"
)

// MemoryEventBus is a simple in-memory implementation of the Bus interface.
// Handlers run synchronously on the emitter's goroutine; their errors are
// logged and swallowed.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event // retained for tests
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, e events.Event) error {
	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[e.Type()]...)
	b.mu.RUnlock()

	b.mu.Lock()
	b.published = append(b.published, e)
	b.mu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic recovered in event handler", "type", e.Type(), "panic", r)
				}
			}()
			if err := handler(ctx, e); err != nil {
				b.logger.Error("event handler failed", "type", e.Type(), "error", err)
			}
		}()
	}
	return nil
}

// Published returns the list of emitted events. This is useful for testing.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event{}, b.published...)
}

// ClearPublished clears the list of emitted events. This is useful for testing.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
