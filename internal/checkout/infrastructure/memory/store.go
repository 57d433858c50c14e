package memory

import (
	"context"
	"sync"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
	"github.com/sweetshop/checkout-service/internal/checkout/domain"
)

// StoredEvent is an outbox row stand-in kept for inspection in tests.
type StoredEvent struct {
	OrderID string
	Type    string
	Payload []byte
}

// Store is the in-memory order store used in tests and dev mode.
// Last-write-wins, like the durable store it stands in for.
type Store struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	events []StoredEvent
}

func NewStore() *Store {
	return &Store{orders: make(map[string]domain.Order)}
}

func (s *Store) Save(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *Store) SaveWithEvent(_ context.Context, o domain.Order, eventType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	s.events = append(s.events, StoredEvent{OrderID: o.ID, Type: eventType, Payload: payload})
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, application.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) Events() []StoredEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StoredEvent, len(s.events))
	copy(out, s.events)
	return out
}

// cloneOrder copies the slice and pointer fields so callers cannot mutate
// stored state through aliases.
func cloneOrder(o domain.Order) domain.Order {
	if o.Items != nil {
		items := make([]domain.LineItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	if o.Postage != nil {
		p := *o.Postage
		o.Postage = &p
	}
	return o
}
