package cart

import (
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/money"
)

func item(id, name, price string) models.CartItem {
	return models.CartItem{ID: id, Name: name, Price: price}
}

func TestCart_AddRemoveTotal(t *testing.T) {
	c := New()
	c.Add(item("1", "Pizza", "10.00"))
	c.Add(item("2", "Soda", "2.50"))
	c.Add(item("1", "Pizza", "10.00"))

	if got := c.Total(); got != "22.50" {
		t.Errorf("Total() = %s, want 22.50", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (duplicates are kept)", c.Len())
	}

	if !c.Remove("1") {
		t.Fatal("Remove(1) = false, want true")
	}
	items := c.Items()
	if len(items) != 2 || items[0].ID != "2" || items[1].ID != "1" {
		t.Errorf("Remove should only drop the first match, got %+v", items)
	}
	if got := c.Total(); got != "12.50" {
		t.Errorf("Total() = %s, want 12.50", got)
	}

	if c.Remove("missing") {
		t.Error("Remove(missing) = true, want false")
	}
}

func TestCart_Clear(t *testing.T) {
	c := New()
	c.Add(item("1", "Pizza", "10.00"))
	c.Clear()

	if got := c.Total(); got != "0.00" {
		t.Errorf("Total() after Clear = %s, want 0.00", got)
	}
	if len(c.Items()) != 0 {
		t.Errorf("Items() after Clear = %v, want empty", c.Items())
	}
}

// The total must match the sum of whatever is present after any sequence of
// adds and removes.
func TestCart_DiscardKeepsLaterAdditions(t *testing.T) {
	c := New()
	c.Add(item("1", "Pizza", "10.00"))
	c.Add(item("2", "Soda", "2.50"))
	ordered := c.Items()

	c.Add(item("3", "Salad", "7.00"))
	c.Add(item("1", "Pizza", "10.00"))
	c.Discard(ordered)

	items := c.Items()
	if len(items) != 2 || items[0].ID != "3" || items[1].ID != "1" {
		t.Fatalf("expected the two later additions to remain, got %+v", items)
	}
	if got := c.Total(); got != "17.00" {
		t.Errorf("Total() = %s, want 17.00", got)
	}
}

func TestCart_TotalMatchesContents(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prices := []string{"0.99", "1.50", "10.00", "2.35", "7.10"}

	for round := 0; round < 50; round++ {
		c := New()
		for op := 0; op < 40; op++ {
			id := strconv.Itoa(rng.Intn(5))
			if rng.Intn(3) == 0 {
				c.Remove(id)
				continue
			}
			idx, _ := strconv.Atoi(id)
			c.Add(item(id, "item"+id, prices[idx]))
		}

		var present []string
		for _, it := range c.Items() {
			present = append(present, it.Price)
		}
		want, err := money.Sum(present...)
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if got := c.Total(); got != money.Format(want) {
			t.Fatalf("round %d: Total() = %s, want %s", round, got, money.Format(want))
		}
	}
}

func TestCart_ItemsIsACopy(t *testing.T) {
	c := New()
	c.Add(item("1", "Pizza", "10.00"))

	items := c.Items()
	items[0].Price = "0.00"

	if c.Total() != "10.00" {
		t.Error("mutating Items() result changed the cart")
	}
}

func TestCart_ConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(item("x", "Fries", "1.00"))
		}()
	}
	wg.Wait()

	if c.Total() != "100.00" {
		t.Errorf("Total() = %s, want 100.00", c.Total())
	}
}

func TestRegistry_GetDropSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour)
	r.now = func() time.Time { return now }

	a := r.Get("session-a")
	a.Add(item("1", "Pizza", "10.00"))
	if r.Get("session-a") != a {
		t.Fatal("Get should return the same cart for a session")
	}
	if r.Get("session-b").Len() != 0 {
		t.Error("a new session should start with an empty cart")
	}

	r.Drop("session-b")
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	now = now.Add(2 * time.Hour)
	if removed := r.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if r.Get("session-a").Len() != 0 {
		t.Error("expired session should get a fresh cart")
	}
}
