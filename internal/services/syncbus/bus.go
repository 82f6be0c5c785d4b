// Package syncbus provides typed publish/subscribe across browser tabs of
// the same application. Local subscribers register per event type; cross-tab
// fan-out rides a single Redis pub/sub channel. Delivery is best-effort,
// fire-and-forget: no acks, no retries, per-sender FIFO only.
package syncbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/domain/models"
)

// Bus is the cross-tab sync bus. A Bus constructed without a working Redis
// connection degrades to a non-functional but non-throwing bus: every method
// is a safe no-op and IsSupported reports false.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[models.SyncEventType]map[int]func(models.SyncEnvelope)
	wildcards   map[int]func(models.SyncEnvelope)
	nextID      int

	origin  string
	channel string
	rdb     *redis.Client
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	started bool
	logger  zerolog.Logger
}

// Config holds the configuration for the sync bus.
type Config struct {
	// Redis may be nil; the bus then runs in unsupported (no-op) mode.
	Redis   *redis.Client
	Channel string
	Logger  zerolog.Logger
}

// DefaultChannel is the single fixed channel for the whole application.
const DefaultChannel = "tutor:sync"

// New creates a sync bus. Call Start to begin receiving remote events.
func New(cfg Config) *Bus {
	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bus{
		subscribers: make(map[models.SyncEventType]map[int]func(models.SyncEnvelope)),
		wildcards:   make(map[int]func(models.SyncEnvelope)),
		origin:      uuid.NewString(),
		channel:     channel,
		rdb:         cfg.Redis,
		logger:      cfg.Logger.With().Str("component", "syncbus").Logger(),
	}
}

// IsSupported reports whether the broadcast primitive is available. Callers
// must degrade gracefully when false: no cross-tab sync, single-tab
// operation unaffected.
func (b *Bus) IsSupported() bool {
	return b != nil && b.rdb != nil
}

// Origin returns this instance's origin id. Envelopes broadcast by this bus
// carry it, and incoming envelopes with it are not redelivered locally.
func (b *Bus) Origin() string {
	if b == nil {
		return ""
	}
	return b.origin
}

// Start subscribes to the broadcast channel and begins dispatching remote
// events to local subscribers. Lifetime is caller-controlled: pair with
// Close. No-op in unsupported mode or when already started.
func (b *Bus) Start(ctx context.Context) error {
	if !b.IsSupported() {
		return nil
	}

	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.pubsub = b.rdb.Subscribe(runCtx, b.channel)
	pubsub := b.pubsub
	b.mu.Unlock()

	// Force the subscription to be established before returning so events
	// broadcast immediately after Start are not missed.
	if _, err := pubsub.Receive(runCtx); err != nil {
		return fmt.Errorf("failed to subscribe to sync channel: %w", err)
	}

	go b.receiveLoop(runCtx, pubsub)
	return nil
}

func (b *Bus) receiveLoop(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env models.SyncEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn().Err(err).Msg("malformed sync envelope, dropping")
				continue
			}
			b.dispatch(env)
		}
	}
}

// dispatch delivers an envelope to local subscribers. Typed subscribers never
// see envelopes from their own bus (a tab never hears itself); wildcard
// subscribers see everything and do their own origin filtering. A panicking
// listener is isolated so the others still run.
func (b *Bus) dispatch(env models.SyncEnvelope) {
	b.mu.RLock()
	var typed []func(models.SyncEnvelope)
	if env.Origin != b.origin {
		for _, fn := range b.subscribers[env.Type] {
			typed = append(typed, fn)
		}
	}
	wild := make([]func(models.SyncEnvelope), 0, len(b.wildcards))
	for _, fn := range b.wildcards {
		wild = append(wild, fn)
	}
	b.mu.RUnlock()

	for _, fn := range typed {
		b.safeCall(fn, env)
	}
	for _, fn := range wild {
		b.safeCall(fn, env)
	}
}

func (b *Bus) safeCall(fn func(models.SyncEnvelope), env models.SyncEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Str("event_type", string(env.Type)).Msg("sync listener panicked")
		}
	}()
	fn(env)
}

// Subscribe registers a callback for an event type and returns an
// unsubscribe function. Multiple subscribers per type are allowed;
// unsubscribing the last one removes the type entry so the registry stays
// bounded.
func (b *Bus) Subscribe(eventType models.SyncEventType, fn func(models.SyncEnvelope)) func() {
	if b == nil {
		return func() {}
	}

	b.mu.Lock()
	set, ok := b.subscribers[eventType]
	if !ok {
		set = make(map[int]func(models.SyncEnvelope))
		b.subscribers[eventType] = set
	}
	id := b.nextID
	b.nextID++
	set[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		if set, ok := b.subscribers[eventType]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subscribers, eventType)
			}
		}
		b.mu.Unlock()
	}
}

// SubscribeAll registers a callback for every event type, including
// envelopes originating from this bus. Used by relays that filter by their
// own downstream identities.
func (b *Bus) SubscribeAll(fn func(models.SyncEnvelope)) func() {
	if b == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.wildcards[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.wildcards, id)
		b.mu.Unlock()
	}
}

// Broadcast publishes an event to all tabs. Fire-and-forget: failures are
// logged, never returned. No-op in unsupported mode.
func (b *Bus) Broadcast(ctx context.Context, eventType models.SyncEventType, payload interface{}) {
	if !b.IsSupported() {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal sync payload")
		return
	}

	b.PublishEnvelope(ctx, models.SyncEnvelope{
		Type:   eventType,
		Data:   data,
		Origin: b.origin,
	})
}

// PublishEnvelope publishes a pre-built envelope, preserving its origin.
// Relays use this to forward tab-originated events upstream.
func (b *Bus) PublishEnvelope(ctx context.Context, env models.SyncEnvelope) {
	if !b.IsSupported() {
		return
	}

	raw, err := json.Marshal(env)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal sync envelope")
		return
	}

	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.logger.Warn().Err(err).Str("event_type", string(env.Type)).Msg("failed to publish sync event")
	}
}

// SubscriberCount returns the number of typed subscribers for an event type.
func (b *Bus) SubscriberCount(eventType models.SyncEventType) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// Close stops the receive loop and releases the Redis subscription.
// No-op in unsupported mode or when not started.
func (b *Bus) Close() error {
	if !b.IsSupported() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.started = false

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.pubsub != nil {
		err := b.pubsub.Close()
		b.pubsub = nil
		if err != nil {
			return fmt.Errorf("failed to close sync subscription: %w", err)
		}
	}
	return nil
}
