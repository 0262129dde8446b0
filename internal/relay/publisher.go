package relay

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RoomChannel is the pub/sub channel of a room.
func RoomChannel(keyPrefix, roomCode string) string {
	return fmt.Sprintf("%sroom:%s", keyPrefix, roomCode)
}

// Publisher sends event envelopes to room channels.
type Publisher struct {
	client    *redis.Client
	keyPrefix string
}

// NewPublisher creates a Publisher.
func NewPublisher(client *redis.Client, keyPrefix string) *Publisher {
	if client == nil {
		panic("redis client cannot be nil for Publisher")
	}
	return &Publisher{client: client, keyPrefix: keyPrefix}
}

// Publish encodes e and publishes it on the room's channel.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	msg, err := Encode(e)
	if err != nil {
		return err
	}
	channel := RoomChannel(p.keyPrefix, e.Room())
	if err := p.client.Publish(ctx, channel, msg).Err(); err != nil {
		return fmt.Errorf("redis: failed to publish %s to %s: %w", e.Name(), channel, err)
	}
	return nil
}
