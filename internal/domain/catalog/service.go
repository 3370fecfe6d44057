// Package catalog serves restaurants, menus and offers to customers and
// lets restaurant admins maintain them.
//
// Errors reuse the order package vocabulary (ValidationError,
// PersistenceError, ErrForbidden) so transports map both services alike.
package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/order"
)

// ErrNotFound is returned when an admin edits an item or offer that does
// not exist.
var ErrNotFound = errors.New("catalog entry not found")

var hundred = decimal.NewFromInt(100)

// Invalidator drops cached menu listings after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Stores bundles the catalog ports. Menu may be a cache in front of the
// store that MenuWriter writes to.
type Stores struct {
	Menu        menu.Repository
	MenuWriter  menu.Writer
	Offers      offer.Repository
	OfferWriter offer.Writer
}

// ItemInput is an admin's menu item form.
type ItemInput struct {
	// RestaurantID may be left empty by admins bound to a restaurant.
	RestaurantID string
	Name         string
	Category     string
	Description  string
	Price        decimal.Decimal
	IsVeg        bool
	Available    bool
}

// OfferInput is an admin's offer form.
type OfferInput struct {
	Title           string
	Description     string
	DiscountPercent decimal.Decimal
	FreeDelivery    bool
	Active          bool
}

// Service implements catalog reads and admin writes.
type Service struct {
	stores Stores
	cache  Invalidator
	newID  func(prefix string) string
}

// Option configures a Service.
type Option func(*Service)

// WithInvalidator makes menu writes drop cached listings.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.cache = inv }
}

// NewService creates a catalog Service.
func NewService(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		newID:  newCatalogID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func newCatalogID(prefix string) string {
	return prefix + uuid.Must(uuid.NewV7()).String()
}

// ListRestaurants returns the restaurant registry.
func (s *Service) ListRestaurants(ctx context.Context) ([]menu.Restaurant, error) {
	restaurants, err := s.stores.Menu.ListRestaurants(ctx)
	if err != nil {
		return nil, &order.PersistenceError{Op: "list restaurants", Err: err}
	}
	return restaurants, nil
}

// ListMenu returns one restaurant's menu, or every item for an empty id.
func (s *Service) ListMenu(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	items, err := s.stores.Menu.ListItems(ctx, restaurantID)
	if err != nil {
		return nil, &order.PersistenceError{Op: "list menu items", Err: err}
	}
	return items, nil
}

// ListOffers returns the offers visible to actor. Customers only see
// active offers.
func (s *Service) ListOffers(ctx context.Context, actor auth.Session) ([]offer.Offer, error) {
	offers, err := s.stores.Offers.ListOffers(ctx)
	if err != nil {
		return nil, &order.PersistenceError{Op: "list offers", Err: err}
	}
	if actor.IsAdmin() {
		return offers, nil
	}
	return slices.DeleteFunc(offers, func(o offer.Offer) bool { return !o.Active }), nil
}

// CreateItem adds a menu item under a fresh id.
func (s *Service) CreateItem(ctx context.Context, admin auth.Session, in ItemInput) (*menu.Item, error) {
	if !admin.IsAdmin() {
		return nil, order.ErrForbidden
	}
	return s.saveItem(ctx, admin, s.newID("ITM-"), in)
}

// UpdateItem replaces an existing menu item. The item may not move to
// another restaurant.
func (s *Service) UpdateItem(ctx context.Context, admin auth.Session, id string, in ItemInput) (*menu.Item, error) {
	current, err := s.ownedItem(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	if in.RestaurantID != "" && in.RestaurantID != current.RestaurantID {
		return nil, &order.ValidationError{Field: "restaurantId", Reason: "items cannot move between restaurants"}
	}
	in.RestaurantID = current.RestaurantID
	return s.saveItem(ctx, admin, id, in)
}

func (s *Service) saveItem(ctx context.Context, admin auth.Session, id string, in ItemInput) (*menu.Item, error) {
	it := menu.Item{
		ID:           id,
		RestaurantID: strings.TrimSpace(in.RestaurantID),
		Name:         strings.TrimSpace(in.Name),
		Category:     strings.TrimSpace(in.Category),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price.Round(2),
		IsVeg:        in.IsVeg,
		Available:    in.Available,
	}
	switch {
	case admin.RestaurantID == "":
	case it.RestaurantID == "":
		it.RestaurantID = admin.RestaurantID
	case it.RestaurantID != admin.RestaurantID:
		return nil, order.ErrForbidden
	}
	if err := s.validateItem(ctx, it); err != nil {
		return nil, err
	}

	if err := s.stores.MenuWriter.UpsertItem(ctx, it); err != nil {
		return nil, &order.PersistenceError{Op: "save menu item", Err: err}
	}
	s.menuChanged(ctx, admin, "save", it.ID)
	return &it, nil
}

func (s *Service) validateItem(ctx context.Context, it menu.Item) error {
	switch {
	case it.Name == "":
		return &order.ValidationError{Field: "name", Reason: "is required"}
	case it.Price.IsNegative():
		return &order.ValidationError{Field: "price", Reason: "must not be negative"}
	case it.RestaurantID == "":
		return &order.ValidationError{Field: "restaurantId", Reason: "is required"}
	}
	restaurants, err := s.ListRestaurants(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(restaurants, func(r menu.Restaurant) bool { return r.ID == it.RestaurantID }) {
		return &order.ValidationError{Field: "restaurantId", Reason: "unknown restaurant " + it.RestaurantID}
	}
	return nil
}

// DeleteItem removes a menu item. Placed orders keep their own copy of
// the item.
func (s *Service) DeleteItem(ctx context.Context, admin auth.Session, id string) error {
	if _, err := s.ownedItem(ctx, admin, id); err != nil {
		return err
	}
	if err := s.stores.MenuWriter.DeleteItem(ctx, id); err != nil {
		return itemWriteErr("delete menu item", id, err)
	}
	s.menuChanged(ctx, admin, "delete", id)
	return nil
}

// SetItemAvailability switches an item on or off the menu. Unavailable
// items are rejected at checkout.
func (s *Service) SetItemAvailability(ctx context.Context, admin auth.Session, id string, available bool) (*menu.Item, error) {
	it, err := s.ownedItem(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	if err := s.stores.MenuWriter.SetItemAvailability(ctx, id, available); err != nil {
		return nil, itemWriteErr("set menu item availability", id, err)
	}
	it.Available = available
	s.menuChanged(ctx, admin, "availability", id)
	return it, nil
}

// ownedItem loads an item the admin may edit. Admins bound to a
// restaurant only see their own items.
func (s *Service) ownedItem(ctx context.Context, admin auth.Session, id string) (*menu.Item, error) {
	if !admin.IsAdmin() {
		return nil, order.ErrForbidden
	}
	items, err := s.stores.Menu.GetItemsByIDs(ctx, []string{id})
	if err != nil {
		return nil, &order.PersistenceError{Op: "get menu item", Err: err}
	}
	i := slices.IndexFunc(items, func(it menu.Item) bool { return it.ID == id })
	if i < 0 || (admin.RestaurantID != "" && items[i].RestaurantID != admin.RestaurantID) {
		return nil, errors.Wrapf(ErrNotFound, "menu item %q", id)
	}
	return &items[i], nil
}

func itemWriteErr(op, id string, err error) error {
	if errors.Is(err, menu.ErrItemNotFound) {
		return errors.Wrapf(ErrNotFound, "menu item %q", id)
	}
	return &order.PersistenceError{Op: op, Err: err}
}

// menuChanged drops cached listings. A failed invalidation leaves stale
// listings until the cache TTL expires, so it is logged, not returned.
func (s *Service) menuChanged(ctx context.Context, admin auth.Session, op, id string) {
	lg := zctx.From(ctx).With(
		zap.String("op", op),
		zap.String("item_id", id),
		zap.String("admin_id", admin.UserID),
	)
	lg.Info("Menu changed")
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		lg.Error("Invalidate menu cache", zap.Error(err))
	}
}

// CreateOffer adds an offer under a fresh id.
func (s *Service) CreateOffer(ctx context.Context, admin auth.Session, in OfferInput) (*offer.Offer, error) {
	if !admin.IsAdmin() {
		return nil, order.ErrForbidden
	}
	return s.saveOffer(ctx, admin, s.newID("OFR-"), in)
}

// UpdateOffer replaces an existing offer.
func (s *Service) UpdateOffer(ctx context.Context, admin auth.Session, id string, in OfferInput) (*offer.Offer, error) {
	if _, err := s.findOffer(ctx, admin, id); err != nil {
		return nil, err
	}
	return s.saveOffer(ctx, admin, id, in)
}

func (s *Service) saveOffer(ctx context.Context, admin auth.Session, id string, in OfferInput) (*offer.Offer, error) {
	o := offer.Offer{
		ID:              id,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		DiscountPercent: in.DiscountPercent,
		FreeDelivery:    in.FreeDelivery,
		Active:          in.Active,
	}
	switch {
	case o.Title == "":
		return nil, &order.ValidationError{Field: "title", Reason: "is required"}
	case o.DiscountPercent.IsNegative() || o.DiscountPercent.GreaterThan(hundred):
		return nil, &order.ValidationError{Field: "discountPercent", Reason: "must be between 0 and 100"}
	}

	if err := s.stores.OfferWriter.UpsertOffer(ctx, o); err != nil {
		return nil, &order.PersistenceError{Op: "save offer", Err: err}
	}
	zctx.From(ctx).Info("Offer saved",
		zap.String("offer_id", o.ID),
		zap.Bool("active", o.Active),
		zap.String("admin_id", admin.UserID),
	)
	return &o, nil
}

// DeleteOffer removes an offer. Orders that used it keep the offer id.
func (s *Service) DeleteOffer(ctx context.Context, admin auth.Session, id string) error {
	if !admin.IsAdmin() {
		return order.ErrForbidden
	}
	if err := s.stores.OfferWriter.DeleteOffer(ctx, id); err != nil {
		return offerWriteErr("delete offer", id, err)
	}
	zctx.From(ctx).Info("Offer deleted", zap.String("offer_id", id), zap.String("admin_id", admin.UserID))
	return nil
}

// SetOfferActive switches an offer on or off. Inactive offers are hidden
// from customers and rejected at checkout.
func (s *Service) SetOfferActive(ctx context.Context, admin auth.Session, id string, active bool) (*offer.Offer, error) {
	o, err := s.findOffer(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	if err := s.stores.OfferWriter.SetOfferActive(ctx, id, active); err != nil {
		return nil, offerWriteErr("set offer active", id, err)
	}
	o.Active = active
	zctx.From(ctx).Info("Offer toggled",
		zap.String("offer_id", id),
		zap.Bool("active", active),
		zap.String("admin_id", admin.UserID),
	)
	return o, nil
}

func (s *Service) findOffer(ctx context.Context, admin auth.Session, id string) (*offer.Offer, error) {
	if !admin.IsAdmin() {
		return nil, order.ErrForbidden
	}
	o, err := s.stores.Offers.FindOffer(ctx, id)
	if err != nil {
		return nil, offerWriteErr("get offer", id, err)
	}
	return o, nil
}

func offerWriteErr(op, id string, err error) error {
	if errors.Is(err, offer.ErrOfferNotFound) {
		return errors.Wrapf(ErrNotFound, "offer %q", id)
	}
	return &order.PersistenceError{Op: op, Err: err}
}
