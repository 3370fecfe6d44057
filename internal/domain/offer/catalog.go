package offer

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultOffers is the built-in offer catalog.
var DefaultOffers = []Offer{
	{
		ID:              "1",
		Title:           "50% OFF up to ₹100",
		Description:     "Half price on your order, discount capped at ₹100",
		DiscountPercent: decimal.NewFromInt(50),
		Active:          true,
	},
	{
		ID:           "2",
		Title:        "Free Delivery",
		Description:  "No delivery fee on this order",
		FreeDelivery: true,
		Active:       true,
	},
	{
		ID:          "3",
		Title:       "Buy 1 Get 1 Free",
		Description: "On selected items",
		Active:      true,
	},
	{
		ID:              "4",
		Title:           "30% OFF",
		Description:     "First order discount",
		DiscountPercent: decimal.NewFromInt(30),
		Active:          true,
	},
}

// DefaultCoupons is the built-in coupon allow-list.
var DefaultCoupons = []Coupon{
	{Code: "SAVE10", Amount: decimal.NewFromInt(50)},
	{Code: "FOOD50", Amount: decimal.NewFromInt(100)},
}

var (
	_ Repository = (*Catalog)(nil)
	_ Writer     = (*Catalog)(nil)
)

// Catalog is a mutex-guarded in-process Repository and Writer. Offers keep
// insertion order; an upsert of a known id replaces it in place.
type Catalog struct {
	mu      sync.RWMutex
	offers  []Offer
	coupons map[string]Coupon
}

// NewCatalog builds a catalog from the given offers and coupons.
// Coupon codes are normalized on insertion.
func NewCatalog(offers []Offer, coupons []Coupon) *Catalog {
	c := &Catalog{
		offers:  slices.Clone(offers),
		coupons: make(map[string]Coupon, len(coupons)),
	}
	for _, cp := range coupons {
		cp.Code = NormalizeCode(cp.Code)
		c.coupons[cp.Code] = cp
	}
	return c
}

// NewDefaultCatalog returns a Catalog holding DefaultOffers and DefaultCoupons.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(DefaultOffers, DefaultCoupons)
}

func (c *Catalog) ListOffers(_ context.Context) ([]Offer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.offers), nil
}

func (c *Catalog) FindOffer(_ context.Context, id string) (*Offer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.index(id)
	if i < 0 {
		return nil, ErrOfferNotFound
	}
	o := c.offers[i]
	return &o, nil
}

func (c *Catalog) FindCoupon(_ context.Context, code string) (*Coupon, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.coupons[NormalizeCode(code)]
	if !ok {
		return nil, ErrUnknownCoupon
	}
	return &cp, nil
}

func (c *Catalog) UpsertOffer(_ context.Context, o Offer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(o.ID); i >= 0 {
		c.offers[i] = o
		return nil
	}
	c.offers = append(c.offers, o)
	return nil
}

func (c *Catalog) DeleteOffer(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return ErrOfferNotFound
	}
	c.offers = slices.Delete(c.offers, i, i+1)
	return nil
}

func (c *Catalog) SetOfferActive(_ context.Context, id string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return ErrOfferNotFound
	}
	c.offers[i].Active = active
	return nil
}

// index must be called with mu held.
func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.offers, func(o Offer) bool { return o.ID == id })
}
