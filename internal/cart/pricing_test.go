package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecompute_ShippingPolicyIsIdempotent(t *testing.T) {
	p := testPricing()

	for _, subtotal := range []string{"0.01", "20", "49.99", "50", "50.01", "120"} {
		s := NewState()
		s.Items = []Item{newTestItem("a", "pa", "Widget", subtotal, 10)}
		s.Items[0].Quantity = 1

		once := p.recompute(s)
		twice := p.recompute(once)

		assert.True(t, once.Shipping.Equal(twice.Shipping),
			"subtotal %s: shipping oscillated %s -> %s",
			subtotal, once.Shipping, twice.Shipping)
		assert.True(t, once.TotalPrice.Equal(twice.TotalPrice))
	}
}

func TestRecompute_EmptyCartShippingStaysZero(t *testing.T) {
	p := testPricing()

	s := p.recompute(NewState())
	assert.True(t, s.Shipping.IsZero())

	// Even a stray non-zero shipping value is reset for an empty cart.
	s.Shipping = decimal.RequireFromString("9.99")
	s = p.recompute(s)
	assert.True(t, s.Shipping.IsZero())
}

func TestRecompute_CustomShippingRateSurvivesBelowThreshold(t *testing.T) {
	p := testPricing()

	s := NewState()
	s.Items = []Item{newTestItem("a", "pa", "Widget", "20.00", 5)}
	s.Items[0].Quantity = 1
	s.Shipping = decimal.RequireFromString("4.50")

	s = p.recompute(s)

	// The policy only fills in the flat rate when shipping is zero; an
	// externally supplied rate is kept.
	assertDecimal(t, "4.50", s.Shipping)
}

func TestFreeShippingProgress(t *testing.T) {
	p := testPricing()

	below := p.FreeShippingProgress(decimal.RequireFromString("30"))
	assert.False(t, below.Qualified)
	assertDecimal(t, "30", below.Current)
	assertDecimal(t, "50", below.Target)
	assertDecimal(t, "20", below.Remaining)

	at := p.FreeShippingProgress(decimal.RequireFromString("50"))
	assert.True(t, at.Qualified)
	assertDecimal(t, "0", at.Remaining)

	above := p.FreeShippingProgress(decimal.RequireFromString("72.50"))
	assert.True(t, above.Qualified)
	assertDecimal(t, "0", above.Remaining)
}

func TestRecompute_TaxDerivedFromSubtotalNotAccumulated(t *testing.T) {
	p := testPricing()

	s := NewState()
	s.Items = []Item{newTestItem("a", "pa", "Widget", "33.33", 10)}
	s.Items[0].Quantity = 3

	// Recomputing many times must not drift the tax.
	for range 100 {
		s = p.recompute(s)
	}

	assertDecimal(t, "99.99", s.Subtotal)
	assert.True(t, s.Subtotal.Mul(p.TaxRate).Equal(s.Tax))
}
