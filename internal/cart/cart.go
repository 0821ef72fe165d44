// Package cart holds the per-session shopping carts.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/money"
)

// Cart is an ordered list of items for one session. Adding the same item
// twice keeps two entries; there is no quantity merging.
type Cart struct {
	mu    sync.RWMutex
	items []models.CartItem
}

// New creates an empty cart
func New() *Cart {
	return &Cart{items: make([]models.CartItem, 0)}
}

// Add appends item to the end of the cart
func (c *Cart) Add(item models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Remove deletes the first entry with the given id and reports whether one was found.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]models.CartItem, 0)
}

// Discard removes one entry per given item, matching by id from the front.
// Entries added after items was read stay in the cart.
func (c *Cart) Discard(items []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, gone := range items {
		for i, item := range c.items {
			if item.ID == gone.ID {
				c.items = append(c.items[:i], c.items[i+1:]...)
				break
			}
		}
	}
}

// Items returns a copy of the items in insertion order
func (c *Cart) Items() []models.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyItems()
}

// Len returns the number of entries
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Total is the sum of item prices formatted to 2 decimal places.
func (c *Cart) Total() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return money.Format(sum(c.items))
}

// View returns the items and total taken under one lock
func (c *Cart) View() models.CartView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.CartView{
		Items: c.copyItems(),
		Total: money.Format(sum(c.items)),
	}
}

func (c *Cart) copyItems() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// sum skips prices that do not parse; menu items are validated when created.
func sum(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		d, err := money.Parse(item.Price)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total
}
