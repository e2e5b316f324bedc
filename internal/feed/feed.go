// Package feed is the in-process change feed for orders. Mutating services
// publish an event after each commit; subscribers (websocket relay, order
// trackers) consume events as invalidation triggers and refetch what they
// care about rather than trusting event payloads.
package feed

import (
	"sync"

	"github.com/google/uuid"
)

// Event types published by the order service.
const (
	EventOrderCreated  = "order_created"
	EventOrderUpdated  = "order_updated"
	EventStatusChanged = "status_changed"
)

// Event identifies which order changed and how. It intentionally carries no
// row data: consumers refetch, so a dropped event at worst delays a refresh.
type Event struct {
	Type         string    `json:"type"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	OrderID      uuid.UUID `json:"order_id"`
	Status       string    `json:"status,omitempty"`
}

// Filter scopes a subscription. Zero-value fields match everything, so
// Filter{} subscribes to the whole feed and Filter{OrderID: id} to one order.
type Filter struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
}

func (f Filter) matches(e Event) bool {
	if f.RestaurantID != uuid.Nil && f.RestaurantID != e.RestaurantID {
		return false
	}
	if f.OrderID != uuid.Nil && f.OrderID != e.OrderID {
		return false
	}
	return true
}

// Subscription is one consumer's handle on the feed. Close is idempotent
// and guarantees no further events are delivered afterwards.
type Subscription struct {
	feed   *Feed
	filter Filter
	ch     chan Event
	once   sync.Once
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.ch)
	})
}

// Feed fans events out to all matching subscriptions.
type Feed struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func New() *Feed {
	return &Feed{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a consumer for events matching the filter. The caller
// must Close the subscription on teardown or the registration leaks.
func (f *Feed) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{
		feed:   f,
		filter: filter,
		ch:     make(chan Event, 16),
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Publish delivers the event to every matching subscription. A subscriber
// whose buffer is full misses the event instead of blocking the publisher.
func (f *Feed) Publish(e Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		if !sub.filter.matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}
