package pricing

import (
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub/internal/domain/offer"
)

// ErrInvalidQuantity is returned when adding an item with quantity below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Cart holds in-progress line items and at most one applied offer.
// The zero value is an empty cart.
type Cart struct {
	items []LineItem
	offer *offer.Offer
}

// Add appends an item, merging quantities with an existing entry of the same id.
func (c *Cart) Add(item LineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity += item.Quantity
		return nil
	}
	c.items = append(c.items, item)
	return nil
}

// SetQuantity changes the quantity of an entry. A quantity below one
// removes the entry. It reports whether the id was present.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		c.items = slices.Delete(c.items, i, i+1)
		return true
	}
	c.items[i].Quantity = quantity
	return true
}

// Remove deletes the entry with the given id.
func (c *Cart) Remove(id string) bool {
	return c.SetQuantity(id, 0)
}

// ApplyOffer replaces any previously applied offer. A nil offer clears it.
func (c *Cart) ApplyOffer(o *offer.Offer) {
	if o == nil {
		c.offer = nil
		return
	}
	cp := *o
	c.offer = &cp
}

// Offer returns the applied offer, if any.
func (c *Cart) Offer() *offer.Offer {
	return c.offer
}

// Items returns a copy of the cart's line items in insertion order.
func (c *Cart) Items() []LineItem {
	return slices.Clone(c.items)
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	return len(c.items)
}

// Breakdown prices the cart under its applied offer.
func (c *Cart) Breakdown() Breakdown {
	return ComputeTotal(c.items, c.offer)
}

// Clear empties the cart and drops the offer.
func (c *Cart) Clear() {
	c.items = nil
	c.offer = nil
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(li LineItem) bool { return li.ID == id })
}
