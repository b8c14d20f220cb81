package cart

import "go.uber.org/zap"

// NotificationKind enumerates the user-feedback events the engine emits.
type NotificationKind string

const (
	NotifyItemAdded   NotificationKind = "item_added"
	NotifyItemRemoved NotificationKind = "item_removed"
	NotifyCartCleared NotificationKind = "cart_cleared"
	NotifyMaxQuantity NotificationKind = "max_quantity_reached"
)

// Notification is a fire-and-forget user-feedback message. It is a pure
// side-channel: the engine never reads anything back from the sink.
type Notification struct {
	Kind     NotificationKind
	ItemName string
	// Quantity is the quantity actually added for NotifyItemAdded.
	Quantity int
	// Limit is the saturated MaxQuantity for NotifyMaxQuantity.
	Limit int
	// ShowCart marks notifications that should carry a "view cart"
	// affordance in the UI.
	ShowCart bool
}

// Notifier receives notifications. Implementations must not block; delivery
// failures are the implementation's problem, never the engine's.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// NopNotifier discards all notifications.
func NopNotifier() Notifier {
	return NotifierFunc(func(Notification) {})
}

// LogNotifier logs every notification through the given logger. Useful as a
// default sink for headless deployments.
func LogNotifier(lg *zap.Logger) Notifier {
	return NotifierFunc(func(n Notification) {
		lg.Info("cart notification",
			zap.String("kind", string(n.Kind)),
			zap.String("item", n.ItemName),
			zap.Int("quantity", n.Quantity),
			zap.Int("limit", n.Limit),
		)
	})
}
