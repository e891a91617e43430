package bus

import (
	"context"
	"sync"
)

// MemBus is an in-process Bus implementation. Handlers run on the
// publisher's goroutine in registration order.
type MemBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

var _ Bus = (*MemBus)(nil)

// NewMemBus creates an empty in-process bus.
func NewMemBus() *MemBus {
	return &MemBus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers h for topic.
func (b *MemBus) Subscribe(ctx context.Context, topic string, h Handler) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = h

	return &memSubscription{bus: b, topic: topic, id: id}, nil
}

// Publish delivers an event to every handler subscribed to its topic.
func (b *MemBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Topic]))
	for _, h := range b.subs[event.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of live handlers for topic.
func (b *MemBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type memSubscription struct {
	bus   *MemBus
	topic string
	id    int
	once  sync.Once
}

func (s *memSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.topic], s.id)
	})
}
