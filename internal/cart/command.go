package cart

import "github.com/shopspring/decimal"

// Command is a cart mutation. Commands are total: every command applied to
// every reachable state yields a valid state, never an error.
type Command interface {
	isCommand()
}

// AddItem creates a new line, or tops up the quantity of the existing line
// with the same ID, saturating at the line's MaxQuantity.
type AddItem struct {
	Item     Item
	Quantity int
}

// RemoveItem deletes the line with the given ID. Removing an absent line is
// a silent no-op.
type RemoveItem struct {
	ID string
}

// UpdateQuantity sets a line's quantity, clamped to its MaxQuantity. A
// quantity of zero or less removes the line.
type UpdateQuantity struct {
	ID       string
	Quantity int
}

// Clear empties the cart and resets discount alongside the item-derived
// totals.
type Clear struct{}

// SetShipping overrides the shipping amount directly. This is the seam for
// external rate lookups; the threshold policy is not re-applied on top of it.
type SetShipping struct {
	Amount decimal.Decimal
}

// SetDiscount sets the externally-supplied absolute discount amount. The
// engine does not validate its origin; the grand total is floored at zero
// instead.
type SetDiscount struct {
	Amount decimal.Decimal
}

// ToggleCart, OpenCart and CloseCart flip the UI visibility flag only; they
// never touch items or totals.
type (
	ToggleCart struct{}
	OpenCart   struct{}
	CloseCart  struct{}
)

func (AddItem) isCommand()        {}
func (RemoveItem) isCommand()     {}
func (UpdateQuantity) isCommand() {}
func (Clear) isCommand()          {}
func (SetShipping) isCommand()    {}
func (SetDiscount) isCommand()    {}
func (ToggleCart) isCommand()     {}
func (OpenCart) isCommand()       {}
func (CloseCart) isCommand()      {}
