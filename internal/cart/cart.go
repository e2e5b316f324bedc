// Package cart holds the transient selection a table builds before it
// becomes an order. A cart lives in memory only: it is created on the first
// add, owned by a single table session, and discarded on submission.
package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllCategories is the sentinel category matching the whole menu.
const AllCategories = "all"

// Item is the menu data a cart snapshots when a line is added. Price and
// name are copied so later menu edits do not move an in-flight selection.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Line is one cart entry: an item snapshot plus a quantity >= 1.
type Line struct {
	Item
	Quantity int32 `json:"quantity"`
}

// Cart maps menu item IDs to lines, preserving first-add order.
// Not safe for concurrent use; Store serializes access per session.
type Cart struct {
	lines map[uuid.UUID]*Line
	order []uuid.UUID
}

func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]*Line)}
}

// FromLines rebuilds a cart from previously persisted order lines, keeping
// their captured prices. Used by the edit flow.
func FromLines(lines []Line) *Cart {
	c := New()
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			continue
		}
		item := ln.Item
		item.Name = strings.TrimSpace(item.Name)
		c.lines[item.ID] = &Line{Item: item, Quantity: ln.Quantity}
		c.order = append(c.order, item.ID)
	}
	return c
}

// Add inserts the item with quantity 1, or increments an existing line.
func (c *Cart) Add(item Item) {
	if ln, ok := c.lines[item.ID]; ok {
		ln.Quantity++
		return
	}
	item.Name = strings.TrimSpace(item.Name)
	c.lines[item.ID] = &Line{Item: item, Quantity: 1}
	c.order = append(c.order, item.ID)
}

// Adjust adds delta to the line's quantity. A result <= 0 removes the line.
// Adjusting an ID that is not in the cart does nothing; only Add creates
// lines.
func (c *Cart) Adjust(id uuid.UUID, delta int32) {
	ln, ok := c.lines[id]
	if !ok {
		return
	}
	ln.Quantity += delta
	if ln.Quantity <= 0 {
		c.Remove(id)
	}
}

// Remove deletes the line unconditionally.
func (c *Cart) Remove(id uuid.UUID) {
	if _, ok := c.lines[id]; !ok {
		return
	}
	delete(c.lines, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether the item is in the cart.
func (c *Cart) Contains(id uuid.UUID) bool {
	_, ok := c.lines[id]
	return ok
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// Lines returns the cart's lines in first-add order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Total recomputes the cart total from scratch on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		ln := c.lines[id]
		total = total.Add(ln.Price.Mul(decimal.NewFromInt32(ln.Quantity)))
	}
	return total
}

// Categories returns the distinct categories of the full menu in first-seen
// order, with the "all" sentinel first.
func Categories(menu []Item) []string {
	cats := []string{AllCategories}
	seen := map[string]bool{}
	for _, m := range menu {
		if m.Category == "" || seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		cats = append(cats, m.Category)
	}
	return cats
}

// FilterByCategory restricts the menu to one category (AllCategories means
// no filter) and floats items already in the cart to the front. The sort is
// stable: within each group, menu order is preserved.
func FilterByCategory(menu []Item, category string, c *Cart) []Item {
	var selected, rest []Item
	for _, m := range menu {
		if category != AllCategories && m.Category != category {
			continue
		}
		if c != nil && c.Contains(m.ID) {
			selected = append(selected, m)
		} else {
			rest = append(rest, m)
		}
	}
	return append(selected, rest...)
}
