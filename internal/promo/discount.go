package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount for the given rule and cart items. It
// returns ErrUnknownCode when the cart does not satisfy the rule's minimum
// item count.
func Apply(rule *Rule, items []Item) (Discount, error) {
	if rule.MinItems > 0 && totalQuantity(items) < rule.MinItems {
		return Discount{}, ErrUnknownCode
	}

	subtotal := subtotal(items)

	var amount decimal.Decimal
	switch rule.Type {
	case TypePercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case TypeFixed:
		amount = decimal.Min(rule.Value, subtotal)
	case TypeFreeLowest:
		amount = lowestUnitPrice(items)
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.Type)
	}

	if rule.MaxDiscount.IsPositive() {
		amount = decimal.Min(amount, rule.MaxDiscount)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{
		Code:        rule.Code,
		Amount:      amount.Round(2),
		Description: rule.Description,
	}, nil
}

// subtotal returns the sum of price * quantity across all items.
func subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// totalQuantity returns the sum of quantities across all items.
func totalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// lowestUnitPrice returns the lowest unit price among the items, or zero for
// an empty cart.
func lowestUnitPrice(items []Item) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	lowest := items[0].Price
	for _, item := range items[1:] {
		if item.Price.LessThan(lowest) {
			lowest = item.Price
		}
	}
	return lowest
}
