// Package live pushes order snapshots to subscribers. Each subscription
// receives the full result of its query after every change, keeps only the
// most recent undelivered snapshot, and stops as soon as it is cancelled or
// its context ends.
package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// Source is the one-shot query a snapshot is built from
type Source interface {
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
}

// Query selects the orders a subscription sees. Match is applied after
// Filter and may be nil.
type Query struct {
	Filter repository.OrderFilter
	Match  func(models.Order) bool
}

func (q Query) matches(o models.Order) bool {
	if !q.Filter.Matches(o) {
		return false
	}
	return q.Match == nil || q.Match(o)
}

func (q Query) apply(orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if q.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Broker tracks subscriptions and republishes snapshots on change.
// Every store read takes a version before it starts; a subscriber never
// accepts a snapshot older than the last one it was given, so a slow read
// cannot overwrite a newer result.
type Broker struct {
	src Source
	log *slog.Logger

	version atomic.Uint64

	mu   sync.Mutex
	subs map[uint64]*Subscription
	next uint64
}

// NewBroker creates a broker reading snapshots from src
func NewBroker(src Source, log *slog.Logger) *Broker {
	return &Broker{
		src:  src,
		log:  log,
		subs: make(map[uint64]*Subscription),
	}
}

// Subscribe registers q and queues the current snapshot before returning.
// The subscription is cancelled automatically when ctx ends.
func (b *Broker) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	ch := make(chan []models.Order, 1)
	sub := &Subscription{C: ch, ch: ch, query: q, broker: b}

	// Registered before the first read so a publish racing with it is not lost.
	b.mu.Lock()
	b.next++
	sub.id = b.next
	b.subs[sub.id] = sub
	b.mu.Unlock()

	version := b.version.Add(1)
	orders, err := b.src.ListOrders(ctx, q.Filter)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	sub.deliver(version, q.apply(orders))

	sub.mu.Lock()
	if !sub.closed {
		sub.stop = context.AfterFunc(ctx, sub.Cancel)
	}
	sub.mu.Unlock()
	return sub, nil
}

// Publish re-reads the order collection once and pushes a fresh snapshot to
// every subscriber.
func (b *Broker) Publish(ctx context.Context) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	version := b.version.Add(1)
	orders, err := b.src.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		b.log.Error("failed to load order snapshot", "error", err, "subscribers", len(subs))
		return
	}

	for _, s := range subs {
		s.deliver(version, s.query.apply(orders))
	}
}

// Len reports the number of active subscriptions
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Subscription is one standing query. C yields full snapshots and is
// closed by Cancel.
type Subscription struct {
	C <-chan []models.Order

	ch     chan []models.Order
	id     uint64
	query  Query
	broker *Broker
	stop   func() bool

	mu      sync.Mutex
	closed  bool
	version uint64
	once    sync.Once
}

// deliver replaces any snapshot the consumer has not read yet. Snapshots
// read before the last delivered one are dropped.
func (s *Subscription) deliver(version uint64, snapshot []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || version <= s.version {
		return
	}
	s.version = version
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}

// Cancel stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.remove(s.id)

		s.mu.Lock()
		s.closed = true
		close(s.ch)
		stop := s.stop
		s.mu.Unlock()

		if stop != nil {
			stop()
		}
	})
}
