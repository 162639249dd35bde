// Package events provides a simple publish-subscribe bus for domain status
// updates delivered over SSE.
package events

import (
	"sync"

	"github.com/micro-nova/hdmitx/internal/domain"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe event bus.
// A subscriber that falls behind loses its oldest snapshots, never the newest,
// so it always ends up at the domain's current status.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan domain.Status
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan domain.Status),
	}
}

// Subscribe creates a new subscription with the given ID.
// Call Unsubscribe when done to clean up.
func (b *Bus) Subscribe(id string) <-chan domain.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.Status, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends a status update to all subscribers. If a subscriber's
// channel is full, its oldest queued snapshot is discarded to make room.
func (b *Bus) Publish(st domain.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

var _ domain.Publisher = (*Bus)(nil)
