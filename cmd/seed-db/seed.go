package main

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/menu"
)

type restaurantJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Location string          `json:"location"`
	Rating   decimal.Decimal `json:"rating"`
}

type itemJSON struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurantId"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	IsVeg        bool            `json:"isVeg"`
	// Available defaults to true when omitted.
	Available *bool `json:"available"`
}

type seedFile struct {
	Restaurants []restaurantJSON `json:"restaurants"`
	Items       []itemJSON       `json:"items"`
}

// parseSeed decodes and checks that every item references a listed
// restaurant.
func parseSeed(data []byte) (*seedFile, error) {
	var s seedFile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode JSON")
	}

	known := make(map[string]bool, len(s.Restaurants))
	for _, r := range s.Restaurants {
		if r.ID == "" {
			return nil, errors.New("restaurant without id")
		}
		known[r.ID] = true
	}
	for _, it := range s.Items {
		if !known[it.RestaurantID] {
			return nil, errors.Errorf("item %q references unknown restaurant %q", it.ID, it.RestaurantID)
		}
		if it.Price.IsNegative() {
			return nil, errors.Errorf("item %q has negative price", it.ID)
		}
	}
	return &s, nil
}

func (s *seedFile) domain() ([]menu.Restaurant, []menu.Item) {
	restaurants := make([]menu.Restaurant, 0, len(s.Restaurants))
	for _, r := range s.Restaurants {
		restaurants = append(restaurants, menu.Restaurant{ID: r.ID, Name: r.Name, Location: r.Location, Rating: r.Rating})
	}
	items := make([]menu.Item, 0, len(s.Items))
	for _, it := range s.Items {
		available := it.Available == nil || *it.Available
		items = append(items, menu.Item{
			ID:           it.ID,
			RestaurantID: it.RestaurantID,
			Name:         it.Name,
			Category:     it.Category,
			Description:  it.Description,
			Price:        it.Price,
			IsVeg:        it.IsVeg,
			Available:    available,
		})
	}
	return restaurants, items
}
