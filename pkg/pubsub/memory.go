package pubsub

import (
	"context"
	"sync"
)

// InMemoryBroadcaster fans published payloads out to all subscribers of a
// channel. Slow subscribers drop messages rather than block the publisher.
type InMemoryBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]chan []byte
	nextID      int
	closed      bool
}

func NewInMemoryBroadcaster() *InMemoryBroadcaster {
	return &InMemoryBroadcaster{
		subscribers: make(map[string]map[int]chan []byte),
	}
}

func (b *InMemoryBroadcaster) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *InMemoryBroadcaster) Subscribe(_ context.Context, channel string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan []byte, 64)
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]chan []byte)
	}
	b.subscribers[channel][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[channel]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

func (b *InMemoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
	}
	return nil
}
