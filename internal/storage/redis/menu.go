// Package redis caches the restaurant and menu registry in Redis.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/menu"
)

const (
	restaurantsKey = "foodhub:restaurants"
	menuKey        = "foodhub:menu"
	allItemsField  = "*"
)

var (
	_ menu.Repository     = (*MenuCache)(nil)
	_ catalog.Invalidator = (*MenuCache)(nil)
)

// MenuCache is a read-through cache over a menu.Repository.
//
// Restaurant and per-restaurant menu listings are cached for TTL. Item
// lookups by id always hit the underlying repository so checkout prices
// come from the source of truth. Redis failures degrade to direct reads.
type MenuCache struct {
	client *redis.Client
	next   menu.Repository
	ttl    time.Duration
}

// NewMenuCache wraps next with a cache stored in client.
func NewMenuCache(client *redis.Client, next menu.Repository, ttl time.Duration) *MenuCache {
	return &MenuCache{client: client, next: next, ttl: ttl}
}

func (c *MenuCache) ListRestaurants(ctx context.Context) ([]menu.Restaurant, error) {
	var cached []menu.Restaurant
	if ok := c.load(ctx, c.client.Get(ctx, restaurantsKey), &cached); ok {
		return cached, nil
	}

	restaurants, err := c.next.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	if data, ok := c.encode(ctx, restaurants); ok {
		c.warn(ctx, "store restaurants", c.client.Set(ctx, restaurantsKey, data, c.ttl).Err())
	}
	return restaurants, nil
}

func (c *MenuCache) ListItems(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	field := restaurantID
	if field == "" {
		field = allItemsField
	}

	var cached []menu.Item
	if ok := c.load(ctx, c.client.HGet(ctx, menuKey, field), &cached); ok {
		return cached, nil
	}

	items, err := c.next.ListItems(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if data, ok := c.encode(ctx, items); ok {
		_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, menuKey, field, data)
			p.Expire(ctx, menuKey, c.ttl)
			return nil
		})
		c.warn(ctx, "store menu", err)
	}
	return items, nil
}

func (c *MenuCache) GetItemsByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	return c.next.GetItemsByIDs(ctx, ids)
}

// Invalidate drops every cached listing. The catalog service calls it after
// each menu write.
func (c *MenuCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, restaurantsKey, menuKey).Err(); err != nil {
		return errors.Wrap(err, "invalidate menu cache")
	}
	return nil
}

// load decodes a cached value into dst. It reports false on a miss or any
// cache failure.
func (c *MenuCache) load(ctx context.Context, cmd *redis.StringCmd, dst any) bool {
	data, err := cmd.Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "read cache", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.warn(ctx, "decode cached value", err)
		return false
	}
	return true
}

func (c *MenuCache) encode(ctx context.Context, v any) ([]byte, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		c.warn(ctx, "encode cache value", err)
		return nil, false
	}
	return data, true
}

func (c *MenuCache) warn(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	zctx.From(ctx).Warn("Menu cache degraded", zap.String("op", op), zap.Error(err))
}
