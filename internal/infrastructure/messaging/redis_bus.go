package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/circuitbreaker"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisPublisher is the slice of the Redis client the bus needs.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RedisEventBus publishes every event to a Redis channel and then to the
// local bus. Redis failures are logged and do not block local delivery.
type RedisEventBus struct {
	client         RedisPublisher
	localBus       *InMemoryEventBus
	channelName    string
	instanceID     string
	publishTimeout time.Duration
	breaker        *circuitbreaker.CircuitBreaker
	logger         *logger.Logger
	mu             sync.RWMutex
	closed         bool
}

var _ shared.EventBus = (*RedisEventBus)(nil)

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Client RedisPublisher

	// ChannelName is the Redis channel for events (default: "focusgoal:events").
	ChannelName string

	// InstanceID identifies this process in the envelope. Generated when empty.
	InstanceID string

	PublishTimeout time.Duration

	// Breaker skips Redis while it keeps failing. Optional.
	Breaker *circuitbreaker.CircuitBreaker

	LocalBusConfig InMemoryEventBusConfig
	Logger         *logger.Logger
}

// Envelope is the JSON document written to the Redis channel.
type Envelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// NewRedisEventBus creates a Redis fan-out bus.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = "focusgoal:events"
	}
	if config.InstanceID == "" {
		config.InstanceID = "instance-" + uuid.NewString()
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 2 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.LocalBusConfig.Logger == nil {
		config.LocalBusConfig.Logger = config.Logger
	}

	return &RedisEventBus{
		client:         config.Client,
		localBus:       NewInMemoryEventBus(config.LocalBusConfig),
		channelName:    config.ChannelName,
		instanceID:     config.InstanceID,
		publishTimeout: config.PublishTimeout,
		breaker:        config.Breaker,
		logger:         config.Logger.Named("redis_eventbus"),
	}, nil
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish sends an event to Redis and to local handlers.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	envelope := Envelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.publishTimeout)
	defer cancel()

	if err := b.fanOut(ctx, envelope); err != nil {
		b.logger.Error("failed to publish to redis",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}

	return b.localBus.Publish(event)
}

// fanOut returns nil when the breaker skips the call.
func (b *RedisEventBus) fanOut(ctx context.Context, envelope Envelope) error {
	publish := func(ctx context.Context) error {
		return b.client.Publish(ctx, b.channelName, envelope)
	}
	if b.breaker == nil {
		return publish(ctx)
	}
	return b.breaker.ExecuteWithFallback(ctx, publish, func(err error) error {
		b.logger.Debug("redis fan-out skipped",
			logger.String("event_type", string(envelope.EventType)),
			logger.Err(err),
		)
		return nil
	})
}

// Close shuts down the local bus. The Redis client is owned by the caller.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return b.localBus.Close()
}
