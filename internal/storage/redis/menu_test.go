package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/storage/memory"
)

type countingRepo struct {
	restaurants []menu.Restaurant
	items       []menu.Item
	err         error

	listRestaurants int
	listItems       int
	getByIDs        int
}

func (r *countingRepo) ListRestaurants(context.Context) ([]menu.Restaurant, error) {
	r.listRestaurants++
	return r.restaurants, r.err
}

func (r *countingRepo) ListItems(_ context.Context, restaurantID string) ([]menu.Item, error) {
	r.listItems++
	var out []menu.Item
	for _, it := range r.items {
		if restaurantID == "" || it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	return out, r.err
}

func (r *countingRepo) GetItemsByIDs(context.Context, []string) ([]menu.Item, error) {
	r.getByIDs++
	return r.items, r.err
}

func newCache(t *testing.T) (*MenuCache, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRepo{
		restaurants: []menu.Restaurant{{ID: "r1", Name: "Spice Route", Rating: decimal.RequireFromString("4.5")}},
		items: []menu.Item{
			{ID: "m1", RestaurantID: "r1", Name: "Biryani", Price: decimal.RequireFromString("180.5"), Available: true},
			{ID: "m2", RestaurantID: "r2", Name: "Dosa", Price: decimal.NewFromInt(90)},
		},
	}
	return NewMenuCache(client, repo, time.Minute), repo, mr
}

func TestMenuCache_Restaurants(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCache(t)

	first, err := c.ListRestaurants(ctx)
	require.NoError(t, err)
	second, err := c.ListRestaurants(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listRestaurants)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.True(t, first[0].Rating.Equal(second[0].Rating))

	mr.FastForward(2 * time.Minute)
	_, err = c.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listRestaurants)
}

func TestMenuCache_ItemsPerRestaurant(t *testing.T) {
	ctx := context.Background()
	c, repo, _ := newCache(t)

	items, err := c.ListItems(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	all, err := c.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cached, err := c.ListItems(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.True(t, decimal.RequireFromString("180.5").Equal(cached[0].Price))
	assert.Equal(t, 2, repo.listItems)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.ListItems(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.listItems)
}

func TestMenuCache_ItemLookupBypassesCache(t *testing.T) {
	ctx := context.Background()
	c, repo, _ := newCache(t)

	for i := 0; i < 2; i++ {
		_, err := c.GetItemsByIDs(ctx, []string{"m1"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.getByIDs)
}

func TestMenuCache_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCache(t)
	mr.Close()

	restaurants, err := c.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 1)
	assert.Equal(t, 1, repo.listRestaurants)
}

func TestMenuCache_RepositoryErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c, repo, _ := newCache(t)
	repo.err = errors.New("db down")

	_, err := c.ListRestaurants(ctx)
	require.Error(t, err)

	repo.err = nil
	_, err = c.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listRestaurants)
}

func TestMenuCache_CatalogWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewMenu(
		[]menu.Restaurant{{ID: "r1", Name: "Spice Route"}},
		[]menu.Item{{ID: "m1", RestaurantID: "r1", Name: "Biryani", Price: decimal.NewFromInt(180), Available: true}},
	)
	cache := NewMenuCache(client, store, time.Hour)
	offers := offer.NewDefaultCatalog()
	svc := catalog.NewService(catalog.Stores{
		Menu:        cache,
		MenuWriter:  store,
		Offers:      offers,
		OfferWriter: offers,
	}, catalog.WithInvalidator(cache))

	items, err := svc.ListMenu(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Available)
	assert.True(t, mr.Exists(menuKey))

	admin := auth.Session{UserID: "a1", UserType: auth.UserAdmin, RestaurantID: "r1"}
	_, err = svc.SetItemAvailability(ctx, admin, "m1", false)
	require.NoError(t, err)
	assert.False(t, mr.Exists(menuKey))

	items, err = svc.ListMenu(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Available)
}
