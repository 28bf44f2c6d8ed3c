package pubsub

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisBroadcaster publishes session updates through Redis pub/sub so
// multiple server processes can share one notification stream.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(ctx context.Context, addr string) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}
	return &RedisBroadcaster{
		client: client,
	}, nil
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %v", channel, err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %v", channel, err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel, nil
}

func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}
