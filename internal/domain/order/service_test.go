package order

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
)

// --- Mock implementations ---

type mockMenuRepo struct {
	restaurants []menu.Restaurant
	items       map[string]menu.Item
	err         error
}

func (m *mockMenuRepo) ListRestaurants(_ context.Context) ([]menu.Restaurant, error) {
	return m.restaurants, m.err
}

func (m *mockMenuRepo) ListItems(_ context.Context, restaurantID string) ([]menu.Item, error) {
	var out []menu.Item
	for _, it := range m.items {
		if restaurantID == "" || it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	return out, m.err
}

func (m *mockMenuRepo) GetItemsByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []menu.Item
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

type mockStore struct {
	orders  map[string]*Order
	history map[string][]StatusChange

	createErr error
	updateErr error
	updates   int
}

func newMockStore() *mockStore {
	return &mockStore{orders: map[string]*Order{}, history: map[string][]StatusChange{}}
}

func (m *mockStore) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.OutOfStock = slices.Clone(o.OutOfStock)
	return &cp, nil
}

func (m *mockStore) list(keep func(*Order) bool) []Order {
	var out []Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	// Map iteration is random; callers sort.
	return out
}

func (m *mockStore) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	return m.list(func(o *Order) bool { return o.CustomerID == customerID }), nil
}

func (m *mockStore) ListByRestaurant(_ context.Context, restaurantID string) ([]Order, error) {
	return m.list(func(o *Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (m *mockStore) ListAll(_ context.Context) ([]Order, error) {
	return m.list(func(*Order) bool { return true }), nil
}

func (m *mockStore) UpdateStatus(_ context.Context, c StatusChange) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.orders[c.OrderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != c.From {
		return ErrStatusConflict
	}
	o.Status = c.To
	o.Version++
	m.history[c.OrderID] = append(m.history[c.OrderID], c)
	return nil
}

func (m *mockStore) AddOutOfStock(_ context.Context, id, item string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !slices.Contains(o.OutOfStock, item) {
		o.OutOfStock = append(o.OutOfStock, item)
	}
	return nil
}

func (m *mockStore) History(_ context.Context, id string) ([]StatusChange, error) {
	return m.history[id], nil
}

type failingResolver struct {
	offerErr  error
	couponErr error
}

func (f failingResolver) ResolveOffer(_ context.Context, _ string) (*offer.Offer, error) {
	return nil, f.offerErr
}

func (f failingResolver) ResolveCoupon(_ context.Context, _ string) (offer.CouponResult, error) {
	return offer.CouponResult{}, f.couponErr
}

type mockPublisher struct {
	events []Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return m.err
}

// --- Helpers ---

var (
	customer = auth.Session{UserID: "cust-1", UserType: auth.UserCustomer}
	admin    = auth.Session{UserID: "admin-1", UserType: auth.UserAdmin, RestaurantID: "r1"}
)

func newMenu() *mockMenuRepo {
	return &mockMenuRepo{
		restaurants: []menu.Restaurant{{ID: "r1", Name: "Spice Route"}, {ID: "r2", Name: "Green Bowl"}},
		items: map[string]menu.Item{
			"m1": {ID: "m1", RestaurantID: "r1", Name: "Butter Chicken", Price: decimal.NewFromInt(100), Available: true},
			"m2": {ID: "m2", RestaurantID: "r1", Name: "Dal Makhani", Price: decimal.NewFromInt(50), Available: true},
			"m3": {ID: "m3", RestaurantID: "r2", Name: "Quinoa Salad", Price: decimal.NewFromInt(80), Available: true},
			"m4": {ID: "m4", RestaurantID: "r2", Name: "Seasonal Soup", Price: decimal.NewFromInt(60), Available: false},
		},
	}
}

type fixture struct {
	svc    *Service
	menu   *mockMenuRepo
	store  *mockStore
	events *mockPublisher
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		menu:   newMenu(),
		store:  newMockStore(),
		events: &mockPublisher{},
		now:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	resolver := offer.NewResolver(offer.NewDefaultCatalog(), offer.ResolverConfig{})
	f.svc = NewService(f.menu, resolver, f.store,
		WithPublisher(f.events),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func sampleCheckout() CheckoutRequest {
	return CheckoutRequest{
		QuoteRequest: QuoteRequest{
			Items: []CartLine{{MenuItemID: "m1", Quantity: 2}, {MenuItemID: "m2", Quantity: 1}},
		},
		PaymentMethod: PaymentUPI,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// --- Tests ---

func TestQuote(t *testing.T) {
	tests := []struct {
		name      string
		offerID   string
		coupon    string
		wantFee   string
		wantDisc  string
		wantTotal string
	}{
		{name: "no offer", wantFee: "40", wantDisc: "0", wantTotal: "302.5"},
		{name: "capped percent offer", offerID: "1", wantFee: "40", wantDisc: "100", wantTotal: "202.5"},
		{name: "free delivery", offerID: "2", wantFee: "0", wantDisc: "0", wantTotal: "262.5"},
		{name: "coupon on top of offer", offerID: "1", coupon: "food50", wantFee: "40", wantDisc: "100", wantTotal: "102.5"},
		{name: "unknown coupon is free", coupon: "BOGUS", wantFee: "40", wantDisc: "0", wantTotal: "302.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := sampleCheckout().QuoteRequest
			req.OfferID = tt.offerID
			req.CouponCode = tt.coupon

			q, err := f.svc.Quote(context.Background(), req)
			require.NoError(t, err)
			assertDecimal(t, "250", q.Breakdown.Subtotal)
			assertDecimal(t, "12.5", q.Breakdown.Tax)
			assertDecimal(t, tt.wantFee, q.Breakdown.DeliveryFee)
			assertDecimal(t, tt.wantDisc, q.Breakdown.Discount)
			assertDecimal(t, tt.wantTotal, q.Total)
			assert.Len(t, q.Lines, 2)
		})
	}
}

func TestQuote_UnknownOffer(t *testing.T) {
	f := newFixture(t)
	req := sampleCheckout().QuoteRequest
	req.OfferID = "99"

	_, err := f.svc.Quote(context.Background(), req)
	require.ErrorIs(t, err, offer.ErrOfferNotFound)
}

func TestQuote_InactiveOffer(t *testing.T) {
	f := newFixture(t)
	catalog := offer.NewDefaultCatalog()
	require.NoError(t, catalog.SetOfferActive(context.Background(), "1", false))
	f.svc.offers = offer.NewResolver(catalog, offer.ResolverConfig{})

	req := sampleCheckout().QuoteRequest
	req.OfferID = "1"
	_, err := f.svc.Quote(context.Background(), req)
	require.ErrorIs(t, err, offer.ErrOfferInactive)

	var pErr *PersistenceError
	assert.False(t, errors.As(err, &pErr))
}

func TestQuote_LookupFailuresArePersistenceErrors(t *testing.T) {
	dbErr := errors.New("connection refused")
	tests := []struct {
		name    string
		setup   func(f *fixture)
		offerID string
		wantOp  string
	}{
		{
			name:   "menu registry",
			setup:  func(f *fixture) { f.menu.err = dbErr },
			wantOp: "get menu items",
		},
		{
			name:    "offer catalog",
			setup:   func(f *fixture) { f.svc.offers = failingResolver{offerErr: dbErr} },
			offerID: "1",
			wantOp:  "resolve offer",
		},
		{
			name:   "coupon allow-list",
			setup:  func(f *fixture) { f.svc.offers = failingResolver{couponErr: dbErr} },
			wantOp: "resolve coupon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			req := sampleCheckout().QuoteRequest
			req.OfferID = tt.offerID

			_, err := f.svc.Quote(context.Background(), req)

			var pErr *PersistenceError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.wantOp, pErr.Op)
			require.ErrorIs(t, err, dbErr)
		})
	}
}

func TestListForRestaurant_RegistryFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	f.menu.err = errors.New("connection refused")

	_, err := f.svc.ListForRestaurant(context.Background(), "r1")

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "list restaurants", pErr.Op)
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	req := sampleCheckout()
	req.OfferID = "1"
	req.CouponCode = "SAVE10"

	o, err := f.svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "cust-1", o.CustomerID)
	assert.Equal(t, "r1", o.RestaurantID)
	assert.Equal(t, StatusNew, o.Status)
	assert.Equal(t, []string{"Butter Chicken (x2)", "Dal Makhani (x1)"}, o.Items)
	assert.Equal(t, "1", o.OfferID)
	assert.Equal(t, "SAVE10", o.CouponCode)
	assertDecimal(t, "50", o.CouponDiscount)
	assertDecimal(t, "152.5", o.Total)
	assert.Equal(t, f.now, o.CreatedAt)
	assert.Equal(t, f.now.Add(30*time.Minute), o.DeliveryETA)

	stored, err := f.store.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assertDecimal(t, "152.5", stored.Total)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventPlaced, f.events.events[0].Type)
	assert.Equal(t, o.ID, f.events.events[0].OrderID)
}

func TestCheckout_CouponLargerThanTotal(t *testing.T) {
	f := newFixture(t)
	req := CheckoutRequest{
		QuoteRequest: QuoteRequest{
			Items:      []CartLine{{MenuItemID: "m2", Quantity: 1}},
			OfferID:    "1",
			CouponCode: "FOOD50",
		},
		PaymentMethod: PaymentCOD,
	}

	o, err := f.svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
	// 50 + 2.5 + 40 - 25 = 67.5, coupon of 100 floors at zero.
	assertDecimal(t, "0", o.Total)
	assertDecimal(t, "67.5", o.CouponDiscount)
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CheckoutRequest)
		wantField string
	}{
		{
			name:      "no items",
			mutate:    func(r *CheckoutRequest) { r.Items = nil },
			wantField: "items",
		},
		{
			name:      "zero quantity",
			mutate:    func(r *CheckoutRequest) { r.Items[1].Quantity = 0 },
			wantField: "items[1].quantity",
		},
		{
			name:      "unknown item",
			mutate:    func(r *CheckoutRequest) { r.Items[0].MenuItemID = "nope" },
			wantField: "items[0].menuItemId",
		},
		{
			name:      "unavailable item",
			mutate:    func(r *CheckoutRequest) { r.Items[0].MenuItemID = "m4" },
			wantField: "items[0].menuItemId",
		},
		{
			name:      "bad payment method",
			mutate:    func(r *CheckoutRequest) { r.PaymentMethod = "cheque" },
			wantField: "paymentMethod",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := sampleCheckout()
			tt.mutate(&req)

			_, err := f.svc.Checkout(context.Background(), customer, req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Empty(t, f.store.orders)
			assert.Empty(t, f.events.events)
		})
	}
}

func TestCheckout_RequiresCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), auth.Session{}, sampleCheckout())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCheckout_PersistenceError(t *testing.T) {
	f := newFixture(t)
	dbErr := errors.New("connection refused")
	f.store.createErr = dbErr

	_, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "create order", pErr.Op)
	require.ErrorIs(t, err, dbErr)
	assert.Empty(t, f.events.events)
}

func TestCheckout_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)
	assert.Contains(t, f.store.orders, o.ID)
}

func TestCheckout_AttributionFallsBackWithoutRestaurantIDs(t *testing.T) {
	f := newFixture(t)
	for id, it := range f.menu.items {
		it.RestaurantID = ""
		f.menu.items[id] = it
	}

	first, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)
	second, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)

	assert.Equal(t, "r1", first.RestaurantID)
	assert.Equal(t, "r2", second.RestaurantID)
}

func TestGet_CustomerSeesOnlyOwnOrders(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)

	other := auth.Session{UserID: "cust-2", UserType: auth.UserCustomer}
	_, err = f.svc.Get(context.Background(), other, o.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	got, err := f.svc.Get(context.Background(), admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestListForCustomer_NewestFirst(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 3; i++ {
		o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
		require.NoError(t, err)
		ids = append(ids, o.ID)
		f.now = f.now.Add(time.Minute)
	}

	orders, err := f.svc.ListForCustomer(context.Background(), customer.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[1], orders[1].ID)
	assert.Equal(t, ids[0], orders[2].ID)
}

func TestListForCustomer_SameInstantNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	// The store returns them in random order; ranking must still be stable.
	for i := 0; i < 10; i++ {
		orders, err := f.svc.ListForCustomer(ctx, customer.UserID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)
		assert.Equal(t, first.ID, orders[1].ID)
	}
}

func TestListForRestaurant_EmptyRegistryShowsAll(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)
	_, err = f.svc.Checkout(context.Background(), customer, CheckoutRequest{
		QuoteRequest:  QuoteRequest{Items: []CartLine{{MenuItemID: "m3", Quantity: 1}}},
		PaymentMethod: PaymentCOD,
	})
	require.NoError(t, err)

	orders, err := f.svc.ListForRestaurant(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	f.menu.restaurants = nil
	orders, err = f.svc.ListForRestaurant(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestTransition_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)

	for _, step := range []struct {
		action Action
		want   Status
	}{
		{ActionAccept, StatusPreparing},
		{ActionReady, StatusOnTheWay},
		{ActionDeliver, StatusDelivered},
	} {
		got, err := f.svc.Transition(ctx, admin, o.ID, step.action)
		require.NoError(t, err, step.action)
		assert.Equal(t, step.want, got.Status)
	}

	history, err := f.svc.History(ctx, admin, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, StatusNew, history[0].From)
	assert.Equal(t, StatusDelivered, history[2].To)
	assert.Equal(t, "admin-1", history[2].ChangedBy)

	// One placed event plus three status changes.
	assert.Len(t, f.events.events, 4)
}

func TestTransition_SkippingAStepIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, admin, o.ID, ActionAccept)
	require.NoError(t, err)
	updates := f.store.updates

	_, err = f.svc.Transition(ctx, admin, o.ID, ActionDeliver)

	var itErr *IllegalTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusPreparing, itErr.From)
	assert.Equal(t, ActionDeliver, itErr.Action)
	assert.Equal(t, updates, f.store.updates, "store must not be touched")

	stored, err := f.store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, stored.Status)
}

func TestTransition_Forbidden(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), customer, o.ID, ActionAccept)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transition(context.Background(), admin, "ORD-missing", ActionAccept)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTransition_ConflictAndPersistenceErrors(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
		require.NoError(t, err)
		f.store.updateErr = ErrStatusConflict

		_, err = f.svc.Transition(context.Background(), admin, o.ID, ActionAccept)
		require.ErrorIs(t, err, ErrStatusConflict)
	})
	t.Run("persistence", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.svc.Checkout(context.Background(), customer, sampleCheckout())
		require.NoError(t, err)
		f.store.updateErr = errors.New("disk full")

		_, err = f.svc.Transition(context.Background(), admin, o.ID, ActionAccept)
		var pErr *PersistenceError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "update order status", pErr.Op)
	})
}

func TestMarkOutOfStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)

	_, err = f.svc.MarkOutOfStock(ctx, admin, o.ID, "Dal Makhani (x1)")
	require.NoError(t, err)
	_, err = f.svc.MarkOutOfStock(ctx, admin, o.ID, "Dal Makhani (x1)")
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dal Makhani (x1)"}, got.OutOfStock)
	assert.Equal(t, StatusNew, got.Status)
	assert.True(t, o.Total.Equal(got.Total))

	_, err = f.svc.MarkOutOfStock(ctx, admin, o.ID, "Paneer Tikka (x1)")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.MarkOutOfStock(ctx, customer, o.ID, "Dal Makhani (x1)")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminActionsAreScopedToRestaurant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)
	require.Equal(t, "r1", o.RestaurantID)

	otherAdmin := auth.Session{UserID: "admin-2", UserType: auth.UserAdmin, RestaurantID: "r2"}

	_, err = f.svc.Get(ctx, otherAdmin, o.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.Transition(ctx, otherAdmin, o.ID, ActionAccept)
	require.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.MarkOutOfStock(ctx, otherAdmin, o.ID, "Dal Makhani (x1)")
	require.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.History(ctx, otherAdmin, o.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Zero(t, f.store.updates)

	platform := auth.Session{UserID: "ops", UserType: auth.UserAdmin}
	got, err := f.svc.Transition(ctx, platform, o.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, got.Status)
}

func TestAdminActions_UnattributedOrderIsShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.menu.restaurants = nil
	o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
	require.NoError(t, err)
	require.False(t, o.Attributed())

	otherAdmin := auth.Session{UserID: "admin-2", UserType: auth.UserAdmin, RestaurantID: "r2"}
	_, err = f.svc.Transition(ctx, otherAdmin, o.ID, ActionAccept)
	require.NoError(t, err)
}

func TestHistory_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.History(context.Background(), admin, "ORD-missing")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestQueueAndReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		o, err := f.svc.Checkout(ctx, customer, sampleCheckout())
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, err := f.svc.Transition(ctx, admin, ids[0], ActionAccept)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, admin, ids[1], ActionDeny)
	require.NoError(t, err)

	q, err := f.svc.Queue(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, q.New, 1)
	assert.Len(t, q.Preparing, 1)
	assert.Len(t, q.Past, 1)

	rep, err := f.svc.Report(ctx, admin, RangeToday)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Orders)
	assertDecimal(t, "605", rep.Revenue)
	require.NotEmpty(t, rep.TopItems)
	assert.Equal(t, ItemCount{Name: "Butter Chicken", Count: 4}, rep.TopItems[0])

	_, err = f.svc.Queue(ctx, customer)
	require.ErrorIs(t, err, ErrForbidden)
}
