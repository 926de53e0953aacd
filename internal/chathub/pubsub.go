package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ethos/backend/internal/logger"
	"ethos/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RoomChannelPrefix prefixes the Redis channel of every case room.
const RoomChannelPrefix = "ethos:room:"

// Broker carries room events between server nodes.
type Broker interface {
	Publish(ctx context.Context, event models.RoomEvent) error
	// Listen subscribes and returns once the subscription is live. Events are
	// passed to deliver from a background goroutine until ctx is cancelled.
	Listen(ctx context.Context, deliver func(models.RoomEvent)) error
}

// RedisBroker fans room events out over Redis Pub/Sub, one channel per room.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends event to the room's channel.
func (b *RedisBroker) Publish(ctx context.Context, event models.RoomEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode room event: %w", err)
	}
	return b.client.Publish(ctx, RoomChannelPrefix+event.Room, payload).Err()
}

// Listen pattern-subscribes to every room channel.
func (b *RedisBroker) Listen(ctx context.Context, deliver func(models.RoomEvent)) error {
	pubsub := b.client.PSubscribe(ctx, RoomChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to room channels: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.RoomEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Error("dropping undecodable room event", "channel", msg.Channel, "error", err)
					continue
				}
				if event.Room == "" {
					event.Room = strings.TrimPrefix(msg.Channel, RoomChannelPrefix)
				}
				deliver(event)
			}
		}
	}()
	return nil
}
