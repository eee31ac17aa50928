package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"aidmap-api/internal/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultRedisChannel carries events between instances
const DefaultRedisChannel = "aidmap:realtime"

// RedisBridge publishes local events to every instance sharing a Redis
// channel and replays remote events into the local hub.
type RedisBridge struct {
	hub        *Hub
	client     *redis.Client
	channel    string
	instanceID string
}

// NewRedisBridge connects hub to a Redis channel
func NewRedisBridge(hub *Hub, client *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{
		hub:        hub,
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// NewRedisClient parses a redis:// URL and checks connectivity
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Publish delivers locally then forwards to the other instances
func (b *RedisBridge) Publish(event Event) {
	event.Origin = b.instanceID
	b.hub.Publish(event)

	payload, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Error("❌ realtime bridge marshal failed")
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		logger.WithError(err).WithField("topic", event.Topic).Warn("⚠️ realtime bridge publish failed")
	}
}

// Run relays remote events until ctx is cancelled
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	logger.WithFields(logrus.Fields{"channel": b.channel, "instance": b.instanceID}).
		Info("📡 realtime bridge listening")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.WithError(err).Warn("⚠️ realtime bridge dropped malformed event")
		return
	}
	if event.Origin == b.instanceID {
		return
	}
	b.hub.Publish(event)
}
