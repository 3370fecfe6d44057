//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/order"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "foodhub",
				"POSTGRES_PASSWORD": "foodhub",
				"POSTGRES_DB":       "foodhub",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = container.Terminate(context.Background()) }()

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "port: %v\n", err)
		return 1
	}

	dsn := fmt.Sprintf("postgres://foodhub:foodhub@%s:%s/foodhub?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		return 1
	}
	// Migrations are idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations rerun: %v\n", err)
		return 1
	}

	return m.Run()
}

func newTestOrder(id string) *order.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &order.Order{
		ID:           id,
		CustomerID:   "cust-1",
		RestaurantID: "r1",
		Items:        []string{"Butter Chicken (x2)", "Dal Makhani (x1)"},
		Lines: []order.Line{
			{MenuItemID: "m1", Name: "Butter Chicken", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
			{MenuItemID: "m2", Name: "Dal Makhani", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
		},
		Subtotal:       decimal.RequireFromString("250"),
		Tax:            decimal.RequireFromString("12.5"),
		DeliveryFee:    decimal.RequireFromString("40"),
		Discount:       decimal.RequireFromString("100"),
		OfferID:        "1",
		CouponCode:     "FOOD50",
		CouponDiscount: decimal.RequireFromString("100"),
		Total:          decimal.RequireFromString("102.5"),
		Status:         order.StatusNew,
		PaymentMethod:  order.PaymentUPI,
		CreatedAt:      now,
		DeliveryETA:    now.Add(order.DeliveryWindow),
	}
}

func TestOrderStore(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(testPool, noop.NewTracerProvider())

	o := newTestOrder("ORD-it-1")
	require.NoError(t, s.Create(ctx, o))

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, got.Items)
	assert.Len(t, got.Lines, 2)
	assert.True(t, o.Total.Equal(got.Total), got.Total.String())
	assert.True(t, o.Lines[0].UnitPrice.Equal(got.Lines[0].UnitPrice))
	assert.Equal(t, order.StatusNew, got.Status)
	assert.Equal(t, order.PaymentUPI, got.PaymentMethod)
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.OutOfStock)

	_, err = s.Get(ctx, "ORD-missing")
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	change := order.StatusChange{
		OrderID: o.ID, From: order.StatusNew, To: order.StatusPreparing,
		ChangedBy: "admin-1", ChangedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpdateStatus(ctx, change))
	require.ErrorIs(t, s.UpdateStatus(ctx, change), order.ErrStatusConflict)

	change.OrderID = "ORD-missing"
	require.ErrorIs(t, s.UpdateStatus(ctx, change), order.ErrOrderNotFound)

	history, err := s.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "admin-1", history[0].ChangedBy)
	assert.Equal(t, order.StatusPreparing, history[0].To)

	require.NoError(t, s.AddOutOfStock(ctx, o.ID, "Dal Makhani (x1)"))
	require.NoError(t, s.AddOutOfStock(ctx, o.ID, "Dal Makhani (x1)"))
	require.ErrorIs(t, s.AddOutOfStock(ctx, "ORD-missing", "x"), order.ErrOrderNotFound)

	got, err = s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dal Makhani (x1)"}, got.OutOfStock)
	assert.Equal(t, order.StatusPreparing, got.Status)
	assert.Equal(t, 1, got.Version)
	assert.True(t, o.Total.Equal(got.Total))

	_, err = s.History(ctx, "ORD-missing")
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderStore_ListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(testPool, noop.NewTracerProvider())

	older := newTestOrder("ORD-list-1")
	older.CustomerID = "cust-list"
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := newTestOrder("ORD-list-2")
	newer.CustomerID = "cust-list"
	require.NoError(t, s.Create(ctx, older))
	require.NoError(t, s.Create(ctx, newer))

	orders, err := s.ListByCustomer(ctx, "cust-list")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-list-2", orders[0].ID)

	byRestaurant, err := s.ListByRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(byRestaurant), 2)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), len(byRestaurant))
}

func TestOrderStore_ListsSameInstantByIDDescending(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(testPool, noop.NewTracerProvider())

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"ORD-tie-b", "ORD-tie-a", "ORD-tie-c"} {
		o := newTestOrder(id)
		o.CustomerID = "cust-tie"
		o.CreatedAt = at
		require.NoError(t, s.Create(ctx, o))
	}

	orders, err := s.ListByCustomer(ctx, "cust-tie")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "ORD-tie-c", orders[0].ID)
	assert.Equal(t, "ORD-tie-b", orders[1].ID)
	assert.Equal(t, "ORD-tie-a", orders[2].ID)
}

func TestCatalogRepositories(t *testing.T) {
	ctx := context.Background()

	menuRepo := NewMenuRepository(testPool)
	require.NoError(t, menuRepo.UpsertRestaurant(ctx, menu.Restaurant{ID: "r-it", Name: "Spice Route", Rating: decimal.RequireFromString("4.5")}))
	require.NoError(t, menuRepo.UpsertItem(ctx, menu.Item{ID: "m-it", RestaurantID: "r-it", Name: "Biryani", Price: decimal.RequireFromString("180.00"), Available: true}))

	items, err := menuRepo.GetItemsByIDs(ctx, []string{"m-it", "nope"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(180).Equal(items[0].Price))

	require.NoError(t, menuRepo.SetItemAvailability(ctx, "m-it", false))
	items, err = menuRepo.GetItemsByIDs(ctx, []string{"m-it"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Available)
	require.ErrorIs(t, menuRepo.SetItemAvailability(ctx, "nope", true), menu.ErrItemNotFound)

	require.NoError(t, menuRepo.UpsertItem(ctx, menu.Item{ID: "m-gone", RestaurantID: "r-it", Name: "Raita", Price: decimal.NewFromInt(40)}))
	require.NoError(t, menuRepo.DeleteItem(ctx, "m-gone"))
	require.ErrorIs(t, menuRepo.DeleteItem(ctx, "m-gone"), menu.ErrItemNotFound)

	offerRepo := NewOfferRepository(testPool)
	require.NoError(t, offerRepo.UpsertOffer(ctx, offer.Offer{ID: "o-it", Title: "30% OFF", DiscountPercent: decimal.NewFromInt(30), Active: true}))
	require.NoError(t, offerRepo.UpsertCoupons(ctx, []offer.Coupon{{Code: " save10 ", Amount: decimal.NewFromInt(50)}}))

	o, err := offerRepo.FindOffer(ctx, "o-it")
	require.NoError(t, err)
	assert.True(t, o.HasPercent())
	_, err = offerRepo.FindOffer(ctx, "nope")
	require.ErrorIs(t, err, offer.ErrOfferNotFound)

	require.NoError(t, offerRepo.SetOfferActive(ctx, "o-it", false))
	o, err = offerRepo.FindOffer(ctx, "o-it")
	require.NoError(t, err)
	assert.False(t, o.Active)
	require.ErrorIs(t, offerRepo.SetOfferActive(ctx, "nope", true), offer.ErrOfferNotFound)
	require.NoError(t, offerRepo.UpsertOffer(ctx, offer.Offer{ID: "o-gone", Title: "Gone"}))
	require.NoError(t, offerRepo.DeleteOffer(ctx, "o-gone"))
	require.ErrorIs(t, offerRepo.DeleteOffer(ctx, "o-gone"), offer.ErrOfferNotFound)

	c, err := offerRepo.FindCoupon(ctx, "SAVE10")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(c.Amount))
	_, err = offerRepo.FindCoupon(ctx, "BOGUS")
	require.ErrorIs(t, err, offer.ErrUnknownCoupon)

	keys := NewAPIKeyRepository(testPool)
	hash := auth.HashKey([]byte("pepper"), "k1")
	require.NoError(t, keys.UpsertAPIKey(ctx, auth.APIKeyInfo{
		ID: "k1", KeyHash: hash, Name: "admin",
		Session: auth.Session{UserID: "admin-1", UserType: auth.UserAdmin, RestaurantID: "r-it"},
	}))
	info, err := keys.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, info.Session.IsAdmin())
	assert.Equal(t, "r-it", info.Session.RestaurantID)
	_, err = keys.FindByHash(ctx, "nope")
	require.ErrorIs(t, err, auth.ErrKeyNotFound)
}
