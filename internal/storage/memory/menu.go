package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/menu"
)

var (
	_ menu.Repository = (*Menu)(nil)
	_ menu.Writer     = (*Menu)(nil)
	_ auth.Repository = (*APIKeys)(nil)
)

// Menu is a mutex-guarded restaurant and menu registry. Restaurants are
// fixed; items can be edited.
type Menu struct {
	mu          sync.RWMutex
	restaurants []menu.Restaurant
	items       []menu.Item
}

// NewMenu returns a registry serving the given restaurants and items in the
// order provided.
func NewMenu(restaurants []menu.Restaurant, items []menu.Item) *Menu {
	return &Menu{
		restaurants: slices.Clone(restaurants),
		items:       slices.Clone(items),
	}
}

func (m *Menu) ListRestaurants(_ context.Context) ([]menu.Restaurant, error) {
	return slices.Clone(m.restaurants), nil
}

func (m *Menu) ListItems(_ context.Context, restaurantID string) ([]menu.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []menu.Item
	for _, it := range m.items {
		if restaurantID == "" || it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Menu) GetItemsByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []menu.Item
	for _, it := range m.items {
		if slices.Contains(ids, it.ID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Menu) UpsertItem(_ context.Context, it menu.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(it.ID); i >= 0 {
		m.items[i] = it
		return nil
	}
	m.items = append(m.items, it)
	return nil
}

func (m *Menu) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return menu.ErrItemNotFound
	}
	m.items = slices.Delete(m.items, i, i+1)
	return nil
}

func (m *Menu) SetItemAvailability(_ context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return menu.ErrItemNotFound
	}
	m.items[i].Available = available
	return nil
}

func (m *Menu) index(id string) int {
	return slices.IndexFunc(m.items, func(it menu.Item) bool { return it.ID == id })
}

// APIKeys maps key hashes to sessions.
type APIKeys struct {
	byHash map[string]auth.APIKeyInfo
}

// NewAPIKeys hashes each plain key with pepper and binds it to its session.
func NewAPIKeys(pepper []byte, keys map[string]auth.Session) *APIKeys {
	k := &APIKeys{byHash: make(map[string]auth.APIKeyInfo, len(keys))}
	for key, s := range keys {
		h := auth.HashKey(pepper, key)
		k.byHash[h] = auth.APIKeyInfo{ID: s.UserID, KeyHash: h, Name: s.UserID, Session: s}
	}
	return k
}

func (k *APIKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := k.byHash[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &info, nil
}
