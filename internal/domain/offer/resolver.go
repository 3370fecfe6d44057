package offer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Resolver maps offer ids and coupon codes to discount rules.
type Resolver struct {
	repo   Repository
	strict bool
}

// ResolverConfig controls unknown coupon handling.
type ResolverConfig struct {
	// Strict makes unknown coupon codes an error instead of a zero discount.
	Strict bool
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository, cfg ResolverConfig) *Resolver {
	return &Resolver{repo: repo, strict: cfg.Strict}
}

// ResolveOffer returns the offer with the given id, or nil for an empty id.
// Switched off offers are rejected with ErrOfferInactive.
func (r *Resolver) ResolveOffer(ctx context.Context, id string) (*Offer, error) {
	if id == "" {
		return nil, nil
	}
	o, err := r.repo.FindOffer(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, errors.Wrap(err, "lookup offer")
	}
	if !o.Active {
		return nil, ErrOfferInactive
	}
	return o, nil
}

// ResolveCoupon looks up a coupon code case-insensitively. An empty code
// yields a zero result that is not applied.
//
// Unknown codes resolve to a zero discount that is still marked applied,
// unless the Resolver is strict, in which case ErrUnknownCoupon is returned.
func (r *Resolver) ResolveCoupon(ctx context.Context, code string) (CouponResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return CouponResult{Amount: decimal.Zero}, nil
	}

	c, err := r.repo.FindCoupon(ctx, code)
	switch {
	case err == nil:
		return CouponResult{
			Code:       c.Code,
			Amount:     c.Amount,
			Applied:    true,
			Recognized: true,
		}, nil
	case errors.Is(err, ErrUnknownCoupon):
		if r.strict {
			return CouponResult{}, ErrUnknownCoupon
		}
		return CouponResult{
			Code:    code,
			Amount:  decimal.Zero,
			Applied: true,
		}, nil
	default:
		return CouponResult{}, errors.Wrap(err, "lookup coupon")
	}
}
