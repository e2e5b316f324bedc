// Package tracker maintains a live view of a single order. A tracking
// session subscribes to the change feed, treats every event as an
// invalidation, and refetches the order from the database, so the view a
// diner sees is always read-your-writes fresh rather than reconstructed
// from event payloads.
package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/feed"
)

const refetchTimeout = 5 * time.Second

// OrderFetcher is the read side the tracker needs. Satisfied by
// *database.Queries.
type OrderFetcher interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Snapshot is one consistent view of a tracked order, with the derived
// fields the client renders from.
type Snapshot struct {
	Order       database.Order       `json:"order"`
	Items       []database.OrderItem `json:"items"`
	Message     string               `json:"message"`
	CanEdit     bool                 `json:"can_edit"`
	CanCheckout bool                 `json:"can_checkout"`
}

// Tracker creates tracking sessions over a shared store and feed.
type Tracker struct {
	store OrderFetcher
	feed  *feed.Feed
}

func New(store OrderFetcher, f *feed.Feed) *Tracker {
	return &Tracker{store: store, feed: f}
}

// Track opens a session on one order. The initial snapshot is fetched
// before the session is returned, so Snapshot is never empty. The caller
// must Close the session on teardown.
func (t *Tracker) Track(ctx context.Context, restaurantID, orderID uuid.UUID) (*Session, error) {
	// Subscribe before the initial fetch so an update landing in between
	// is seen as a pending invalidation instead of being lost.
	sub := t.feed.Subscribe(feed.Filter{OrderID: orderID})

	snap, err := t.fetch(ctx, restaurantID, orderID)
	if err != nil {
		sub.Close()
		return nil, err
	}

	s := &Session{
		tracker:      t,
		restaurantID: restaurantID,
		orderID:      orderID,
		sub:          sub,
		current:      snap,
		updates:      make(chan Snapshot, 1),
		done:         make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

func (t *Tracker) fetch(ctx context.Context, restaurantID, orderID uuid.UUID) (Snapshot, error) {
	order, err := t.store.GetOrder(ctx, database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("get order: %w", err)
	}

	items, err := t.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list order items: %w", err)
	}

	return Snapshot{
		Order:       order,
		Items:       items,
		Message:     order.Status.Message(),
		CanEdit:     order.Status.CanEdit(),
		CanCheckout: order.Status.CanCheckout(),
	}, nil
}

// Session is a live tracking handle on one order.
type Session struct {
	tracker      *Tracker
	restaurantID uuid.UUID
	orderID      uuid.UUID
	sub          *feed.Subscription

	mu      sync.RWMutex
	current Snapshot

	updates chan Snapshot
	once    sync.Once
	done    chan struct{}
}

// Snapshot returns the most recent view of the order.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Updates delivers a fresh snapshot after each change to the order. The
// channel holds only the latest snapshot; a slow reader skips intermediate
// states instead of lagging behind. It is closed when the session ends.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Close tears the session down and unsubscribes from the feed. Once the
// updates channel is closed no further snapshots arrive. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

func (s *Session) loop() {
	defer close(s.updates)
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-s.sub.C():
			if !ok {
				return
			}
			s.refresh()
		}
	}
}

func (s *Session) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()

	snap, err := s.tracker.fetch(ctx, s.restaurantID, s.orderID)
	if err != nil {
		// The next event triggers another refetch; the stale snapshot
		// stays visible until then.
		log.Printf("ERROR: tracker refetch order %s: %v", s.orderID, err)
		return
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	// Latest-wins delivery: drop the queued snapshot if the reader has
	// not picked it up yet.
	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snap:
		default:
		}
	}
}
