package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Store keeps one cart per table session. Carts are process-local: two tabs
// on the same table share a session token and therefore a cart, but nothing
// survives a server restart; by then the diner either ordered or left.
type Store struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[uuid.UUID]*Cart)}
}

// Update runs fn against the session's cart, creating the cart on first use.
// fn runs under the store lock, keeping concurrent taps on one table sane.
func (s *Store) Update(tableID uuid.UUID, fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[tableID]
	if !ok {
		c = New()
		s.carts[tableID] = c
	}
	fn(c)
}

// View runs fn against the session's cart without creating one; fn receives
// an empty cart when the session has none.
func (s *Store) View(tableID uuid.UUID, fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[tableID]
	if !ok {
		c = New()
	}
	fn(c)
}

// Drop discards the session's cart, normally after a successful submission.
func (s *Store) Drop(tableID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, tableID)
}
