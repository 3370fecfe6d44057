package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/offer"
)

func TestCart_AddMergesQuantities(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(LineItem{ID: "a", UnitPrice: d("10"), Quantity: 1}))
	require.NoError(t, c.Add(LineItem{ID: "a", UnitPrice: d("10"), Quantity: 2}))
	require.NoError(t, c.Add(LineItem{ID: "b", UnitPrice: d("5"), Quantity: 1}))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assertDecimal(t, "35", c.Breakdown().Subtotal, "subtotal")
}

func TestCart_AddRejectsZeroQuantity(t *testing.T) {
	var c Cart
	require.ErrorIs(t, c.Add(LineItem{ID: "a", Quantity: 0}), ErrInvalidQuantity)
	assert.Zero(t, c.Len())
}

func TestCart_SetQuantityBelowOneRemoves(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(LineItem{ID: "a", UnitPrice: d("10"), Quantity: 2}))
	require.NoError(t, c.Add(LineItem{ID: "b", UnitPrice: d("5"), Quantity: 1}))

	assert.True(t, c.SetQuantity("a", 0))
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "b", c.Items()[0].ID)

	assert.False(t, c.SetQuantity("missing", 3))
	assert.True(t, c.Remove("b"))
	assert.Zero(t, c.Len())
}

func TestCart_ApplyOfferReplacesPrevious(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(LineItem{ID: "a", UnitPrice: d("100"), Quantity: 2}))
	require.NoError(t, c.Add(LineItem{ID: "b", UnitPrice: d("50"), Quantity: 1}))

	c.ApplyOffer(&offer.Offer{ID: "1", DiscountPercent: d("50")})
	assertDecimal(t, "202.5", c.Breakdown().Total, "total with percent offer")

	c.ApplyOffer(&offer.Offer{ID: "2", FreeDelivery: true})
	assert.Equal(t, "2", c.Offer().ID)
	assertDecimal(t, "262.5", c.Breakdown().Total, "total with free delivery")

	c.ApplyOffer(nil)
	assert.Nil(t, c.Offer())
	assertDecimal(t, "302.5", c.Breakdown().Total, "total without offer")
}

func TestCart_ItemsIsCopy(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(LineItem{ID: "a", UnitPrice: d("10"), Quantity: 1}))

	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Items()[0].Quantity)

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Nil(t, c.Offer())
}
