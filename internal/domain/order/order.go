package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "cod"
	PaymentUPI     PaymentMethod = "upi"
	PaymentBanking PaymentMethod = "banking"
)

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentBanking:
		return true
	default:
		return false
	}
}

// DeliveryWindow is the estimated time from placement to delivery.
const DeliveryWindow = 30 * time.Minute

// Line is a purchased menu item with its price at checkout time.
type Line struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// Summary renders the line the way order lists show it: "name (xN)".
func (l Line) Summary() string {
	return fmt.Sprintf("%s (x%d)", l.Name, l.Quantity)
}

// Order is a placed customer order.
//
// Status and OutOfStock are the only fields that change after creation.
// OutOfStock is operational metadata and never affects pricing.
type Order struct {
	ID           string
	CustomerID   string
	RestaurantID string
	Items        []string
	Lines        []Line

	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	DeliveryFee    decimal.Decimal
	Discount       decimal.Decimal
	OfferID        string
	CouponCode     string
	CouponDiscount decimal.Decimal
	Total          decimal.Decimal

	Status        Status
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	DeliveryETA   time.Time
	OutOfStock    []string
	Version       int
}

// Attributed reports whether the order belongs to a restaurant.
func (o *Order) Attributed() bool {
	return o.RestaurantID != ""
}

// StatusChange records one admin transition.
type StatusChange struct {
	OrderID   string
	From      Status
	To        Status
	ChangedBy string
	ChangedAt time.Time
}

// Store persists orders. Implementations report ErrOrderNotFound for
// unknown ids and ErrStatusConflict when UpdateStatus finds a stored status
// other than change.From.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, change StatusChange) error
	// AddOutOfStock adds item to the order's out-of-stock set; adding an
	// item twice is a no-op.
	AddOutOfStock(ctx context.Context, id, item string) error
	History(ctx context.Context, id string) ([]StatusChange, error)
}
