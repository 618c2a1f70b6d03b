package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/eventbus"

	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DefaultTypeFactories maps event type names to constructors for decoding
// envelopes read back off the stream.
func DefaultTypeFactories() map[string]func() events.Event {
	return map[string]func() events.Event{
		"NoteRegistered":  func() events.Event { return &events.NoteRegistered{} },
		"NoteScanned":     func() events.Event { return &events.NoteScanned{} },
		"NoteTransferred": func() events.Event { return &events.NoteTransferred{} },
		"NoteFlagged":     func() events.Event { return &events.NoteFlagged{} },
	}
}

// RedisEventBus implements the Bus interface on Redis Streams, so audit and
// notification consumers can trail the ledger with at-least-once delivery.
type RedisEventBus struct {
	client        *redis.Client
	stream        string
	group         string
	typeFactories map[string]func() events.Event
	logger        *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc

	stop chan struct{}
	done chan struct{}
}

// NewWithRedis creates a new Redis-backed event bus.
// url: Redis connection URL (e.g., "redis://localhost:6379")
// stream: name of the Redis stream to use
// group: consumer group name for event processing
func NewWithRedis(url, stream, group string, types map[string]func() events.Event, logger *slog.Logger) (*RedisEventBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: url, stream, and group are required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	bus := &RedisEventBus{
		client:        client,
		stream:        stream,
		group:         group,
		typeFactories: types,
		logger:        logger.With("bus", "redis"),
		handlers:      make(map[string][]eventbus.HandlerFunc),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	_ = client.XGroupCreateMkStream(context.Background(), stream, group, "0")
	go bus.consume()
	return bus, nil
}

// Register subscribes a handler to an event type.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit appends the event to the stream. Delivery to handlers happens on the
// consumer goroutine.
func (b *RedisEventBus) Emit(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal %s: %w", e.Type(), err)
	}
	env, err := json.Marshal(envelope{Type: e.Type(), Payload: payload})
	if err != nil {
		return fmt.Errorf("redis event bus: marshal envelope: %w", err)
	}
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(env)},
	}).Err()
}

// Close stops the consumer loop and closes the client.
func (b *RedisEventBus) Close() error {
	close(b.stop)
	<-b.done
	return b.client.Close()
}

func (b *RedisEventBus) consume() {
	defer close(b.done)
	consumer := fmt.Sprintf("%s-consumer", b.group)
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    16,
			Block:    2 * time.Second,
		}).Result()
		cancel()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				b.logger.Error("read group failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.dispatch(msg)
				if err := b.client.XAck(context.Background(), b.stream, b.group, msg.ID).Err(); err != nil {
					b.logger.Error("ack failed", "id", msg.ID, "error", err)
				}
			}
		}
	}
}

func (b *RedisEventBus) dispatch(msg redis.XMessage) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Warn("skipping malformed stream entry", "id", msg.ID)
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Warn("skipping undecodable envelope", "id", msg.ID, "error", err)
		return
	}
	factory, ok := b.typeFactories[env.Type]
	if !ok {
		b.logger.Warn("no factory for event type", "type", env.Type)
		return
	}
	e := factory()
	if err := json.Unmarshal(env.Payload, e); err != nil {
		b.logger.Warn("skipping undecodable payload", "type", env.Type, "error", err)
		return
	}
	// Handlers see the same value shapes the in-memory bus delivers.
	switch v := e.(type) {
	case *events.NoteRegistered:
		e = *v
	case *events.NoteScanned:
		e = *v
	case *events.NoteTransferred:
		e = *v
	case *events.NoteFlagged:
		e = *v
	}

	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[env.Type]...)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(context.Background(), e); err != nil {
			b.logger.Error("event handler failed", "type", env.Type, "error", err)
		}
	}
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
