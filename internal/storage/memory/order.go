// Package memory provides in-process implementations of the domain
// repositories, used by tests and local runs without a database.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/foodhub/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore is a mutex-guarded order.Store. Returned orders are copies, so
// callers cannot mutate stored state.
type OrderStore struct {
	mu      sync.RWMutex
	orders  map[string]*order.Order
	seq     []string
	history map[string][]order.StatusChange
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:  make(map[string]*order.Order),
		history: make(map[string][]order.StatusChange),
	}
}

func clone(o *order.Order) order.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	cp.Lines = slices.Clone(o.Lines)
	cp.OutOfStock = slices.Clone(o.OutOfStock)
	return cp
}

// Create stores o. Creating an id twice is rejected.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return &DuplicateError{ID: o.ID}
	}
	cp := clone(o)
	s.orders[o.ID] = &cp
	s.seq = append(s.seq, o.ID)
	return nil
}

// Get returns the order with the given id.
func (s *OrderStore) Get(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := clone(o)
	return &cp, nil
}

// list returns matching orders newest first, the same ranking the
// postgres store uses.
func (s *OrderStore) list(keep func(*order.Order) bool) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []order.Order
	for _, id := range slices.Backward(s.seq) {
		if o := s.orders[id]; keep(o) {
			out = append(out, clone(o))
		}
	}
	order.SortNewestFirst(out)
	return out
}

func (s *OrderStore) ListByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	return s.list(func(o *order.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *OrderStore) ListByRestaurant(_ context.Context, restaurantID string) ([]order.Order, error) {
	return s.list(func(o *order.Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (s *OrderStore) ListAll(_ context.Context) ([]order.Order, error) {
	return s.list(func(*order.Order) bool { return true }), nil
}

// UpdateStatus applies change only if the stored status still equals
// change.From.
func (s *OrderStore) UpdateStatus(_ context.Context, change order.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[change.OrderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Status != change.From {
		return order.ErrStatusConflict
	}
	o.Status = change.To
	o.Version++
	s.history[change.OrderID] = append(s.history[change.OrderID], change)
	return nil
}

func (s *OrderStore) AddOutOfStock(_ context.Context, id, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if !slices.Contains(o.OutOfStock, item) {
		o.OutOfStock = append(o.OutOfStock, item)
	}
	return nil
}

func (s *OrderStore) History(_ context.Context, id string) ([]order.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.orders[id]; !ok {
		return nil, order.ErrOrderNotFound
	}
	return slices.Clone(s.history[id]), nil
}
