// Package pricing computes cart cost breakdowns.
//
// All amounts are decimals in the store currency. Components are rounded to
// two decimal places and the total is computed from the rounded components,
// so a displayed breakdown always adds up.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/offer"
)

var (
	// TaxRate is the flat tax applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.05")
	// DeliveryFee is charged unless the applied offer waives it.
	DeliveryFee = decimal.NewFromInt(40)
	// MaxOfferDiscount caps percentage offer discounts regardless of subtotal.
	MaxOfferDiscount = decimal.NewFromInt(100)

	hundred = decimal.NewFromInt(100)
)

// LineItem is one product entry in a cart.
type LineItem struct {
	ID           string
	Name         string
	RestaurantID string
	UnitPrice    decimal.Decimal
	Quantity     int
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Breakdown is the cost of a cart before any coupon.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotal prices items under an optional offer.
func ComputeTotal(items []LineItem, o *offer.Offer) Breakdown {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	tax := subtotal.Mul(TaxRate)

	fee := DeliveryFee
	if o != nil && o.FreeDelivery {
		fee = decimal.Zero
	}

	discount := decimal.Zero
	if o.HasPercent() {
		discount = decimal.Min(subtotal.Mul(o.DiscountPercent).Div(hundred), MaxOfferDiscount)
	}

	b := Breakdown{
		Subtotal:    subtotal.Round(2),
		Tax:         tax.Round(2),
		DeliveryFee: fee.Round(2),
		Discount:    discount.Round(2),
	}
	b.Total = floorAtZero(b.Subtotal.Add(b.Tax).Add(b.DeliveryFee).Sub(b.Discount))
	return b
}

// ApplyCoupon subtracts a resolved coupon from an already computed total.
func ApplyCoupon(total decimal.Decimal, c offer.CouponResult) decimal.Decimal {
	return floorAtZero(total.Sub(c.Amount)).Round(2)
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
