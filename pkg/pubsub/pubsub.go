package pubsub

import "context"

// Broadcaster distributes session update notifications to interested
// subscribers, e.g. to invalidate dashboards when a save lands.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
	Close() error
}
