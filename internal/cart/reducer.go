package cart

import "github.com/shopspring/decimal"

// Effect describes a side effect requested by a transition. Effects are
// plain values; the reducer never performs I/O itself.
type Effect interface {
	isEffect()
}

// NotifyEffect asks the effect runner to deliver a notification.
type NotifyEffect struct {
	Notification Notification
}

// PersistEffect asks the effect runner to write the item list to the durable
// store. Emitted only by transitions that changed Items.
type PersistEffect struct{}

func (NotifyEffect) isEffect()  {}
func (PersistEffect) isEffect() {}

// Reduce applies a command to a state and returns the next state together
// with the effects to run. It is a pure function: no I/O, no mutation of the
// input state, and every dependent total is re-derived before returning.
func Reduce(p Pricing, s State, cmd Command) (State, []Effect) {
	next := s.clone()

	switch c := cmd.(type) {
	case AddItem:
		return reduceAdd(p, next, c)

	case RemoveItem:
		i := next.find(c.ID)
		if i < 0 {
			return next, nil
		}
		removed := next.Items[i]
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		next = p.recompute(next)
		return next, []Effect{
			PersistEffect{},
			NotifyEffect{Notification{Kind: NotifyItemRemoved, ItemName: removed.Name}},
		}

	case UpdateQuantity:
		if c.Quantity <= 0 {
			return Reduce(p, next, RemoveItem{ID: c.ID})
		}
		i := next.find(c.ID)
		if i < 0 {
			return next, nil
		}
		qty := min(c.Quantity, next.Items[i].MaxQuantity)
		if qty == next.Items[i].Quantity {
			return next, nil
		}
		next.Items[i].Quantity = qty
		next = p.recompute(next)
		return next, []Effect{PersistEffect{}}

	case Clear:
		if len(next.Items) == 0 {
			return next, nil
		}
		next.Items = nil
		next.Discount = decimal.Zero
		next.Shipping = decimal.Zero
		next = p.recompute(next)
		return next, []Effect{
			PersistEffect{},
			NotifyEffect{Notification{Kind: NotifyCartCleared}},
		}

	case SetShipping:
		next.Shipping = floorAtZero(c.Amount)
		next.TotalPrice = floorAtZero(next.Subtotal.Add(next.Tax).Add(next.Shipping).Sub(next.Discount))
		return next, nil

	case SetDiscount:
		next.Discount = floorAtZero(c.Amount)
		next.TotalPrice = floorAtZero(next.Subtotal.Add(next.Tax).Add(next.Shipping).Sub(next.Discount))
		return next, nil

	case ToggleCart:
		next.IsOpen = !next.IsOpen
		return next, nil

	case OpenCart:
		next.IsOpen = true
		return next, nil

	case CloseCart:
		next.IsOpen = false
		return next, nil

	default:
		return next, nil
	}
}

// reduceAdd merges the requested quantity into an existing line or creates a
// new one, saturating at MaxQuantity. Whenever the request cannot be applied
// in full a max-quantity notification is emitted; a fully saturated add
// additionally leaves the state untouched.
func reduceAdd(p Pricing, next State, c AddItem) (State, []Effect) {
	item := c.Item.clone()
	requested := c.Quantity
	if requested < 1 {
		requested = 1
	}
	if item.MaxQuantity < 1 {
		item.MaxQuantity = 1
	}

	if i := next.find(item.ID); i >= 0 {
		line := &next.Items[i]
		qty := min(line.Quantity+requested, line.MaxQuantity)
		if qty == line.Quantity {
			// Already saturated: no state change, informational only.
			return next, []Effect{
				NotifyEffect{Notification{
					Kind:     NotifyMaxQuantity,
					ItemName: line.Name,
					Limit:    line.MaxQuantity,
				}},
			}
		}
		added := qty - line.Quantity
		clamped := line.Quantity+requested > line.MaxQuantity
		line.Quantity = qty
		next = p.recompute(next)
		effects := []Effect{
			PersistEffect{},
			NotifyEffect{Notification{
				Kind:     NotifyItemAdded,
				ItemName: line.Name,
				Quantity: added,
				ShowCart: true,
			}},
		}
		if clamped {
			effects = append(effects, NotifyEffect{Notification{
				Kind:     NotifyMaxQuantity,
				ItemName: line.Name,
				Limit:    line.MaxQuantity,
			}})
		}
		return next, effects
	}

	clamped := requested > item.MaxQuantity
	item.Quantity = min(requested, item.MaxQuantity)
	next.Items = append(next.Items, item)
	next = p.recompute(next)
	effects := []Effect{
		PersistEffect{},
		NotifyEffect{Notification{
			Kind:     NotifyItemAdded,
			ItemName: item.Name,
			Quantity: item.Quantity,
			ShowCart: true,
		}},
	}
	if clamped {
		effects = append(effects, NotifyEffect{Notification{
			Kind:     NotifyMaxQuantity,
			ItemName: item.Name,
			Limit:    item.MaxQuantity,
		}})
	}
	return next, effects
}
