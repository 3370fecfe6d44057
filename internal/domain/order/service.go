package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/pricing"
)

// OfferResolver resolves offer ids and coupon codes.
type OfferResolver interface {
	ResolveOffer(ctx context.Context, id string) (*offer.Offer, error)
	ResolveCoupon(ctx context.Context, code string) (offer.CouponResult, error)
}

// CartLine is a requested menu item and quantity.
type CartLine struct {
	MenuItemID string
	Quantity   int
}

// QuoteRequest holds the input for pricing a cart.
type QuoteRequest struct {
	Items      []CartLine
	OfferID    string
	CouponCode string
}

// CheckoutRequest holds the input for placing an order.
type CheckoutRequest struct {
	QuoteRequest
	PaymentMethod PaymentMethod
}

// Quote is a priced cart: the offer breakdown and the coupon applied on top.
type Quote struct {
	Lines     []pricing.LineItem
	Offer     *offer.Offer
	Breakdown pricing.Breakdown
	Coupon    offer.CouponResult
	Total     decimal.Decimal
}

// Service implements checkout, status transitions and the order projections.
type Service struct {
	menu       menu.Repository
	offers     OfferResolver
	store      Store
	events     Publisher
	attributor *Attributor
	now        func() time.Time
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the destination of order events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	menuRepo menu.Repository,
	offers OfferResolver,
	store Store,
	opts ...Option,
) *Service {
	s := &Service{
		menu:       menuRepo,
		offers:     offers,
		store:      store,
		events:     NopPublisher{},
		attributor: &Attributor{},
		now:        time.Now,
		newID:      newOrderID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newOrderID returns a time-ordered unique id.
func newOrderID() string {
	return "ORD-" + uuid.Must(uuid.NewV7()).String()
}

// Quote prices a cart without placing an order.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	cart, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o, err := s.offers.ResolveOffer(ctx, req.OfferID)
	if err != nil {
		return nil, lookupErr("resolve offer", err)
	}
	cart.ApplyOffer(o)

	coupon, err := s.offers.ResolveCoupon(ctx, req.CouponCode)
	if err != nil {
		return nil, lookupErr("resolve coupon", err)
	}

	b := cart.Breakdown()
	return &Quote{
		Lines:     cart.Items(),
		Offer:     cart.Offer(),
		Breakdown: b,
		Coupon:    coupon,
		Total:     pricing.ApplyCoupon(b.Total, coupon),
	}, nil
}

// Checkout validates and prices the cart, attributes it to a restaurant and
// persists a new order in status New.
func (s *Service) Checkout(ctx context.Context, customer auth.Session, req CheckoutRequest) (*Order, error) {
	if customer.UserID == "" {
		return nil, ErrForbidden
	}
	if !req.PaymentMethod.Valid() {
		return nil, &ValidationError{Field: "paymentMethod", Reason: "choose one of cod, upi, banking"}
	}

	q, err := s.Quote(ctx, req.QuoteRequest)
	if err != nil {
		return nil, err
	}

	restaurants, err := s.menu.ListRestaurants(ctx)
	if err != nil {
		return nil, lookupErr("list restaurants", err)
	}

	now := s.now()
	o := &Order{
		ID:             s.newID(),
		CustomerID:     customer.UserID,
		RestaurantID:   s.attributor.Attribute(q.Lines, restaurants),
		Subtotal:       q.Breakdown.Subtotal,
		Tax:            q.Breakdown.Tax,
		DeliveryFee:    q.Breakdown.DeliveryFee,
		Discount:       q.Breakdown.Discount,
		CouponCode:     q.Coupon.Code,
		CouponDiscount: decimal.Min(q.Coupon.Amount, q.Breakdown.Total).Round(2),
		Total:          q.Total,
		Status:         StatusNew,
		PaymentMethod:  req.PaymentMethod,
		CreatedAt:      now,
		DeliveryETA:    now.Add(DeliveryWindow),
	}
	if q.Offer != nil {
		o.OfferID = q.Offer.ID
	}
	for _, li := range q.Lines {
		l := Line{MenuItemID: li.ID, Name: li.Name, UnitPrice: li.UnitPrice, Quantity: li.Quantity}
		o.Lines = append(o.Lines, l)
		o.Items = append(o.Items, l.Summary())
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, storeErr("create order", err)
	}

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("restaurant_id", o.RestaurantID),
		zap.String("total", o.Total.StringFixed(2)),
	)
	s.publish(ctx, Event{
		Type:         EventPlaced,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		Status:       o.Status,
		Total:        o.Total,
		At:           now,
	})

	return o, nil
}

// buildCart validates requested lines against the menu registry. Prices and
// restaurant ownership always come from the registry.
func (s *Service) buildCart(ctx context.Context, lines []CartLine) (*pricing.Cart, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("items[%d].quantity", i),
				Reason: "must be at least 1",
			}
		}
		ids[i] = l.MenuItemID
	}

	fetched, err := s.menu.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, lookupErr("get menu items", err)
	}
	byID := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	cart := &pricing.Cart{}
	for i, l := range lines {
		it, ok := byID[l.MenuItemID]
		if !ok {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("items[%d].menuItemId", i),
				Reason: fmt.Sprintf("unknown menu item %q", l.MenuItemID),
			}
		}
		if !it.Available {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("items[%d].menuItemId", i),
				Reason: fmt.Sprintf("%s is not available", it.Name),
			}
		}
		if err := cart.Add(pricing.LineItem{
			ID:           it.ID,
			Name:         it.Name,
			RestaurantID: it.RestaurantID,
			UnitPrice:    it.Price,
			Quantity:     l.Quantity,
		}); err != nil {
			return nil, errors.Wrapf(err, "add %s", it.ID)
		}
	}
	return cart, nil
}

// Get returns an order visible to the session: customers see their own
// orders, admins see those in their restaurant's scope.
func (s *Service) Get(ctx context.Context, actor auth.Session, id string) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get order", err)
	}
	if actor.IsAdmin() {
		if !inScope(actor, o) {
			return nil, ErrOrderNotFound
		}
		return o, nil
	}
	if o.CustomerID != actor.UserID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// adminOrder loads an order an admin may act on.
func (s *Service) adminOrder(ctx context.Context, admin auth.Session, id string) (*Order, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get order", err)
	}
	if !inScope(admin, o) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// inScope reports whether an admin's restaurant covers o. Admins without a
// restaurant, and orders that were never attributed, are unrestricted.
func inScope(admin auth.Session, o *Order) bool {
	return admin.RestaurantID == "" || !o.Attributed() || o.RestaurantID == admin.RestaurantID
}

// ListForCustomer returns the customer's orders, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]Order, error) {
	orders, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, storeErr("list customer orders", err)
	}
	SortNewestFirst(orders)
	return orders, nil
}

// ListForRestaurant returns the orders attributed to restaurantID, newest
// first. While the restaurant registry is empty every order is returned.
func (s *Service) ListForRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	restaurants, err := s.menu.ListRestaurants(ctx)
	if err != nil {
		return nil, lookupErr("list restaurants", err)
	}

	var orders []Order
	if len(restaurants) == 0 {
		orders, err = s.store.ListAll(ctx)
	} else {
		orders, err = s.store.ListByRestaurant(ctx, restaurantID)
	}
	if err != nil {
		return nil, storeErr("list restaurant orders", err)
	}
	SortNewestFirst(orders)
	return orders, nil
}

// Queue returns the admin's restaurant orders grouped by status.
func (s *Service) Queue(ctx context.Context, admin auth.Session) (Queue, error) {
	if !admin.IsAdmin() {
		return Queue{}, ErrForbidden
	}
	orders, err := s.ListForRestaurant(ctx, admin.RestaurantID)
	if err != nil {
		return Queue{}, err
	}
	return BuildQueue(orders), nil
}

// Transition applies an admin action to an order. Illegal actions are
// rejected before the store is touched.
func (s *Service) Transition(ctx context.Context, admin auth.Session, orderID string, action Action) (*Order, error) {
	o, err := s.adminOrder(ctx, admin, orderID)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(
		zap.String("order_id", orderID),
		zap.String("admin_id", admin.UserID),
		zap.String("action", string(action)),
		zap.String("from", string(o.Status)),
	)

	next, err := Next(o.Status, action)
	if err != nil {
		lg.Warn("Rejected order transition", zap.Error(err))
		return nil, err
	}

	change := StatusChange{
		OrderID:   orderID,
		From:      o.Status,
		To:        next,
		ChangedBy: admin.UserID,
		ChangedAt: s.now(),
	}
	if err := s.store.UpdateStatus(ctx, change); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			lg.Warn("Order status changed concurrently")
		}
		return nil, storeErr("update order status", err)
	}

	lg.Info("Order status changed", zap.String("to", string(next)))
	o.Status = next
	o.Version++
	s.publish(ctx, Event{
		Type:         EventStatusChanged,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		Status:       next,
		Total:        o.Total,
		ChangedBy:    admin.UserID,
		At:           change.ChangedAt,
	})
	return o, nil
}

// MarkOutOfStock flags one of the order's items as out of stock. Status and
// total are left untouched.
func (s *Service) MarkOutOfStock(ctx context.Context, admin auth.Session, orderID, item string) (*Order, error) {
	o, err := s.adminOrder(ctx, admin, orderID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(o.Items, item) {
		return nil, &ValidationError{Field: "item", Reason: fmt.Sprintf("%q is not part of order %s", item, orderID)}
	}

	if err := s.store.AddOutOfStock(ctx, orderID, item); err != nil {
		return nil, storeErr("mark item out of stock", err)
	}

	updated, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, storeErr("get order", err)
	}
	return updated, nil
}

// History returns the status changes of an order, oldest first.
func (s *Service) History(ctx context.Context, admin auth.Session, orderID string) ([]StatusChange, error) {
	if _, err := s.adminOrder(ctx, admin, orderID); err != nil {
		return nil, err
	}
	changes, err := s.store.History(ctx, orderID)
	if err != nil {
		return nil, storeErr("get order history", err)
	}
	return changes, nil
}

// Report summarizes the admin's restaurant sales over r.
func (s *Service) Report(ctx context.Context, admin auth.Session, r Range) (*Report, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	orders, err := s.ListForRestaurant(ctx, admin.RestaurantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return BuildReport(orders, r.Start(now), now)
}

// publish delivers an event after commit. Failures are logged: the change
// is already durable.
func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		zctx.From(ctx).Error("Publish order event",
			zap.String("type", string(e.Type)),
			zap.String("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}
