package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/foodhub/internal/domain/offer"
)

const (
	offerColumns = `id, title, description, discount_percent, free_delivery, active`

	listOffersSQL = `SELECT ` + offerColumns + ` FROM offers ORDER BY id`
	getOfferSQL   = `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	getCouponSQL = `SELECT code, amount FROM coupons WHERE code = $1 AND active = TRUE`

	upsertOfferSQL = `INSERT INTO offers (` + offerColumns + `) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description,
			discount_percent = EXCLUDED.discount_percent, free_delivery = EXCLUDED.free_delivery, active = EXCLUDED.active`

	deleteOfferSQL    = `DELETE FROM offers WHERE id = $1`
	setOfferActiveSQL = `UPDATE offers SET active = $2 WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons (code, amount, active) VALUES ($1, $2, TRUE)
		ON CONFLICT (code) DO UPDATE SET amount = EXCLUDED.amount, active = TRUE`
)

var (
	_ offer.Repository = (*OfferRepository)(nil)
	_ offer.Writer     = (*OfferRepository)(nil)
)

// OfferRepository implements offer.Repository and offer.Writer backed by
// PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

func (r *OfferRepository) ListOffers(ctx context.Context) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, listOffersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list offers")
	}
	return pgx.CollectRows(rows, scanOffer)
}

func (r *OfferRepository) FindOffer(ctx context.Context, id string) (*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, getOfferSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find offer %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, offer.ErrOfferNotFound
		}
		return nil, errors.Wrapf(err, "find offer %q", id)
	}
	return &o, nil
}

// FindCoupon looks up an active coupon by its normalized code.
func (r *OfferRepository) FindCoupon(ctx context.Context, code string) (*offer.Coupon, error) {
	var c offer.Coupon
	err := r.pool.QueryRow(ctx, getCouponSQL, code).Scan(&c.Code, &c.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, offer.ErrUnknownCoupon
		}
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &c, nil
}

// UpsertOffer inserts or replaces an offer.
func (r *OfferRepository) UpsertOffer(ctx context.Context, o offer.Offer) error {
	if _, err := r.pool.Exec(ctx, upsertOfferSQL,
		o.ID, o.Title, o.Description, o.DiscountPercent, o.FreeDelivery, o.Active,
	); err != nil {
		return errors.Wrapf(err, "upsert offer %q", o.ID)
	}
	return nil
}

func (r *OfferRepository) DeleteOffer(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOfferSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete offer %q", id)
	}
	if tag.RowsAffected() == 0 {
		return offer.ErrOfferNotFound
	}
	return nil
}

func (r *OfferRepository) SetOfferActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setOfferActiveSQL, id, active)
	if err != nil {
		return errors.Wrapf(err, "set offer %q active", id)
	}
	if tag.RowsAffected() == 0 {
		return offer.ErrOfferNotFound
	}
	return nil
}

// UpsertCoupons writes coupons in one batch. Codes are normalized first.
func (r *OfferRepository) UpsertCoupons(ctx context.Context, coupons []offer.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range coupons {
		batch.Queue(upsertCouponSQL, offer.NormalizeCode(c.Code), c.Amount)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrapf(err, "upsert %d coupons", len(coupons))
	}
	return nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var o offer.Offer
	err := row.Scan(&o.ID, &o.Title, &o.Description, &o.DiscountPercent, &o.FreeDelivery, &o.Active)
	return o, err
}
