package offer

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrOfferNotFound is returned when an offer id is not in the catalog.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrOfferInactive is returned when an offer exists but is switched off.
	ErrOfferInactive = errors.New("offer is not active")
	// ErrUnknownCoupon is returned by a Repository for codes outside the
	// allow-list, and by a strict Resolver to its callers.
	ErrUnknownCoupon = errors.New("unknown coupon code")
)

// Offer is a cart-level promotion. The delivery fee waiver is a structured
// flag and never derived from the title.
type Offer struct {
	ID              string
	Title           string
	Description     string
	DiscountPercent decimal.Decimal
	FreeDelivery    bool
	// Active offers are listed to customers and can be applied at checkout.
	Active bool
}

// HasPercent reports whether the offer carries a percentage discount.
func (o *Offer) HasPercent() bool {
	return o != nil && o.DiscountPercent.IsPositive()
}

// Coupon is a fixed-amount discount applied at payment time.
type Coupon struct {
	Code   string
	Amount decimal.Decimal
}

// CouponResult is the outcome of resolving a coupon code.
//
// Applied mirrors what the checkout shows the customer: an entered code is
// always marked applied. Recognized is false for codes outside the
// allow-list, in which case Amount is zero.
type CouponResult struct {
	Code       string
	Amount     decimal.Decimal
	Applied    bool
	Recognized bool
}

// Repository provides lookup of offers and coupons.
type Repository interface {
	// ListOffers returns every offer, active or not.
	ListOffers(ctx context.Context) ([]Offer, error)
	// FindOffer returns the offer regardless of its active flag, or
	// ErrOfferNotFound.
	FindOffer(ctx context.Context, id string) (*Offer, error)
	// FindCoupon expects a normalized code, see NormalizeCode.
	FindCoupon(ctx context.Context, code string) (*Coupon, error)
}

// Writer manages the offer catalog. DeleteOffer and SetOfferActive return
// ErrOfferNotFound for unknown ids.
type Writer interface {
	UpsertOffer(ctx context.Context, o Offer) error
	DeleteOffer(ctx context.Context, id string) error
	SetOfferActive(ctx context.Context, id string, active bool) error
}

// NormalizeCode uppercases and trims a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
