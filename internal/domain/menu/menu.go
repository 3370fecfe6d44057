package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when a requested menu item does not exist.
var ErrItemNotFound = errors.New("menu item not found")

// Restaurant is a registered restaurant.
type Restaurant struct {
	ID       string
	Name     string
	Location string
	Rating   decimal.Decimal
}

// Item is a dish offered by a restaurant.
type Item struct {
	ID           string
	RestaurantID string
	Name         string
	Category     string
	Description  string
	Price        decimal.Decimal
	IsVeg        bool
	Available    bool
}

// Repository defines read operations for the restaurant and menu registry.
type Repository interface {
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	// ListItems returns the menu of one restaurant, or every item when
	// restaurantID is empty.
	ListItems(ctx context.Context, restaurantID string) ([]Item, error)
	// GetItemsByIDs returns the items found among ids; missing ids are
	// omitted rather than reported.
	GetItemsByIDs(ctx context.Context, ids []string) ([]Item, error)
}

// Writer manages menu items. DeleteItem and SetItemAvailability return
// ErrItemNotFound for unknown ids.
type Writer interface {
	UpsertItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id string) error
	SetItemAvailability(ctx context.Context, id string, available bool) error
}
