package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	itemA := newTestItem("a", "pa", "Widget", "20.00", 5)
	itemA.Quantity = 3
	itemA.CompareAtPrice = decimal.RequireFromString("24.99")
	itemA.Image = "widget.jpg"

	itemB := newTestItem("b-red", "pb", "Gadget Red", "10.50", 2)
	itemB.Quantity = 1
	itemB.Variant = &Variant{ID: "v1", Name: "color", Value: "red"}

	data := EncodeItems([]Item{itemA, itemB})

	decoded, err := DecodeItems(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	assert.Equal(t, "a", decoded[0].ID)
	assert.Equal(t, "pa", decoded[0].ProductID)
	assert.Equal(t, "Widget", decoded[0].Name)
	assert.Equal(t, 3, decoded[0].Quantity)
	assert.Equal(t, 5, decoded[0].MaxQuantity)
	assert.Equal(t, "widget.jpg", decoded[0].Image)
	assert.Equal(t, "Test Seller", decoded[0].Seller.BusinessName)
	assert.True(t, itemA.Price.Equal(decoded[0].Price))
	assert.True(t, itemA.CompareAtPrice.Equal(decoded[0].CompareAtPrice))
	assert.Nil(t, decoded[0].Variant)

	require.NotNil(t, decoded[1].Variant)
	assert.Equal(t, "red", decoded[1].Variant.Value)
	assert.True(t, itemB.Price.Equal(decoded[1].Price))
}

func TestCodec_RoundTripRestoresDerivedTotals(t *testing.T) {
	p := testPricing()
	itemA := newTestItem("a", "pa", "Widget", "20.00", 5)

	before := apply(t, p, NewState(),
		AddItem{Item: itemA, Quantity: 2},
	)

	items, err := DecodeItems(EncodeItems(before.Items))
	require.NoError(t, err)

	after := NewState()
	after.Items = items
	after = p.recompute(after)

	assert.Equal(t, before.TotalItems, after.TotalItems)
	assert.True(t, before.Subtotal.Equal(after.Subtotal))
	assert.True(t, before.Tax.Equal(after.Tax))
	assert.True(t, before.Shipping.Equal(after.Shipping))
	assert.True(t, before.TotalPrice.Equal(after.TotalPrice))
}

func TestCodec_EmptyItems(t *testing.T) {
	items, err := DecodeItems(EncodeItems(nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCodec_RejectsMalformedRecords(t *testing.T) {
	for name, data := range map[string]string{
		"not json":          `{{{`,
		"not an array":      `{"items": []}`,
		"scalar":            `42`,
		"non-object item":   `[1, 2]`,
		"missing identity":  `[{"name": "Widget", "price": 20, "quantity": 1, "maxQuantity": 5}]`,
		"missing productId": `[{"id": "a", "name": "Widget", "price": 20, "quantity": 1, "maxQuantity": 5}]`,
		"negative price":    `[{"id": "a", "productId": "pa", "price": -5, "quantity": 1, "maxQuantity": 5}]`,
		"string quantity":   `[{"id": "a", "productId": "pa", "price": 5, "quantity": "one", "maxQuantity": 5}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeItems([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestCodec_ClampsRestoredQuantities(t *testing.T) {
	data := `[
		{"id": "a", "productId": "pa", "name": "W", "slug": "w", "price": 5, "quantity": 9, "maxQuantity": 3, "seller": {"id": "s", "businessName": "S"}},
		{"id": "b", "productId": "pb", "name": "G", "slug": "g", "price": 5, "quantity": 0, "maxQuantity": 0, "seller": {"id": "s", "businessName": "S"}}
	]`

	items, err := DecodeItems([]byte(data))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 1, items[1].MaxQuantity)
}
