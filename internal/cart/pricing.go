package cart

import "github.com/shopspring/decimal"

// Pricing holds the standing pricing policy: the tax rate applied to the
// subtotal, and the free-shipping threshold with its flat fallback rate.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

// DefaultPricing returns the stock policy: 8% tax, free shipping at 50,
// flat 9.99 below the threshold.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingRate:      decimal.RequireFromString("9.99"),
	}
}

// recompute re-derives every dependent field of the state from Items and the
// Shipping/Discount inputs. Tax is always recomputed from the subtotal, never
// accumulated incrementally, so repeated transitions cannot drift.
//
// The shipping policy is part of the recomputation: once the subtotal crosses
// the threshold shipping is forced to zero, and below the threshold a
// non-empty cart with zero shipping gets the flat rate. An empty cart keeps
// shipping at zero as its base state; the policy never fires on it. Applying
// recompute twice with the same inputs yields the same outputs.
func (p Pricing) recompute(s State) State {
	totalItems := 0
	subtotal := decimal.Zero
	for _, it := range s.Items {
		totalItems += it.Quantity
		subtotal = subtotal.Add(it.LineTotal())
	}

	s.TotalItems = totalItems
	s.Subtotal = subtotal
	s.Tax = subtotal.Mul(p.TaxRate)

	switch {
	case len(s.Items) == 0:
		s.Shipping = decimal.Zero
	case subtotal.GreaterThanOrEqual(p.FreeShippingThreshold):
		s.Shipping = decimal.Zero
	case s.Shipping.IsZero():
		s.Shipping = p.FlatShippingRate
	}

	s.TotalPrice = floorAtZero(subtotal.Add(s.Tax).Add(s.Shipping).Sub(s.Discount))
	return s
}

// FreeShippingProgress describes how far the cart is from free shipping.
type FreeShippingProgress struct {
	Current   decimal.Decimal
	Target    decimal.Decimal
	Remaining decimal.Decimal
	Qualified bool
}

// FreeShippingProgress reports progress of the given subtotal toward the
// free-shipping threshold.
func (p Pricing) FreeShippingProgress(subtotal decimal.Decimal) FreeShippingProgress {
	remaining := floorAtZero(p.FreeShippingThreshold.Sub(subtotal))
	return FreeShippingProgress{
		Current:   subtotal,
		Target:    p.FreeShippingThreshold,
		Remaining: remaining,
		Qualified: subtotal.GreaterThanOrEqual(p.FreeShippingThreshold),
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
