// Package cart implements the shopping-cart pricing and state engine.
//
// The cart is modelled as a single State value advanced by a pure reducer:
// every command is a total function (State, Command) -> (State, effects).
// Side effects (notifications and persistence) are described as values by
// the reducer and executed by the Engine only after the transition commits.
package cart

import (
	"github.com/shopspring/decimal"
)

// Seller identifies the merchant behind a cart line. Display-only metadata
// captured at add-time.
type Seller struct {
	ID           string
	BusinessName string
}

// Variant distinguishes otherwise-identical lines of the same product,
// e.g. size or color.
type Variant struct {
	ID    string
	Name  string
	Value string
}

// Item is one line in the cart: a quantity of one product (optionally one
// variant) at a price captured when the line was added.
type Item struct {
	// ID is the stable identity of this line. It is distinct from ProductID
	// so that multiple variant lines of the same product can coexist.
	ID        string
	ProductID string

	Name string
	Slug string

	// Price is the unit price captured at add-time. CompareAtPrice is a
	// strikethrough reference price for display only; it never enters any
	// total computation.
	Price          decimal.Decimal
	CompareAtPrice decimal.Decimal

	// Quantity is always within [1, MaxQuantity]. A line with quantity
	// zero is represented by its absence from the cart instead.
	Quantity    int
	MaxQuantity int

	Image   string
	Seller  Seller
	Variant *Variant
}

// clone returns a deep copy of the item.
func (it Item) clone() Item {
	if it.Variant != nil {
		v := *it.Variant
		it.Variant = &v
	}
	return it
}

// LineTotal returns Price * Quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// State is the aggregate cart state. Items is the only independent piece of
// content; TotalItems, Subtotal, Tax and TotalPrice are derived from it (and
// from the Shipping/Discount policy inputs) on every transition and must
// never be mutated directly.
type State struct {
	Items  []Item
	IsOpen bool

	TotalItems int
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	TotalPrice decimal.Decimal
}

// NewState returns an empty cart state with all totals at zero.
func NewState() State {
	return State{
		Subtotal:   decimal.Zero,
		Tax:        decimal.Zero,
		Shipping:   decimal.Zero,
		Discount:   decimal.Zero,
		TotalPrice: decimal.Zero,
	}
}

// clone returns a deep copy of the state so that reducer outputs never alias
// reducer inputs.
func (s State) clone() State {
	items := make([]Item, len(s.Items))
	for i, it := range s.Items {
		items[i] = it.clone()
	}
	s.Items = items
	return s
}

// find returns the index of the line with the given id, or -1.
func (s State) find(id string) int {
	for i, it := range s.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// ItemCount sums quantities across all lines referencing the given product,
// covering multi-variant carts where one product spans several lines.
func (s State) ItemCount(productID string) int {
	total := 0
	for _, it := range s.Items {
		if it.ProductID == productID {
			total += it.Quantity
		}
	}
	return total
}

// IsInCart reports whether any line references the given product.
func (s State) IsInCart(productID string) bool {
	return s.ItemCount(productID) > 0
}

// Snapshot is the read-only view of the cart handed to checkout and UI
// layers. It shares no memory with the engine's state.
type Snapshot struct {
	Items      []Item
	TotalItems int
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	TotalPrice decimal.Decimal
}

// snapshot builds a detached Snapshot from the state.
func (s State) snapshot() Snapshot {
	items := make([]Item, len(s.Items))
	for i, it := range s.Items {
		items[i] = it.clone()
	}
	return Snapshot{
		Items:      items,
		TotalItems: s.TotalItems,
		Subtotal:   s.Subtotal,
		Tax:        s.Tax,
		Shipping:   s.Shipping,
		Discount:   s.Discount,
		TotalPrice: s.TotalPrice,
	}
}
