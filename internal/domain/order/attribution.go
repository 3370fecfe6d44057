package order

import (
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/pricing"
)

// Attributor decides which restaurant an order belongs to.
//
// The restaurant is derived from the purchased items: the one with the
// largest share of the subtotal wins, ties going to the first seen. Only when
// no item names a restaurant does it fall back to rotating across the
// registered restaurants.
type Attributor struct {
	next atomic.Uint64
}

// Attribute returns the restaurant id for items, or "" when neither the
// items nor the registry name one.
func (a *Attributor) Attribute(items []pricing.LineItem, registered []menu.Restaurant) string {
	if id := dominantRestaurant(items); id != "" {
		return id
	}
	return a.roundRobinFallback(registered)
}

func dominantRestaurant(items []pricing.LineItem) string {
	var (
		order  []string
		shares = make(map[string]decimal.Decimal)
	)
	for _, item := range items {
		if item.RestaurantID == "" {
			continue
		}
		if _, ok := shares[item.RestaurantID]; !ok {
			order = append(order, item.RestaurantID)
			shares[item.RestaurantID] = decimal.Zero
		}
		shares[item.RestaurantID] = shares[item.RestaurantID].Add(item.LineTotal())
	}

	best := ""
	for _, id := range order {
		if best == "" || shares[id].GreaterThan(shares[best]) {
			best = id
		}
	}
	return best
}

func (a *Attributor) roundRobinFallback(registered []menu.Restaurant) string {
	if len(registered) == 0 {
		return ""
	}
	n := a.next.Add(1) - 1
	return registered[n%uint64(len(registered))].ID
}
