package cart

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// engineMetrics holds the engine's counters. All instruments are optional:
// with a noop MeterProvider every Add is a cheap no-op.
type engineMetrics struct {
	commands        metric.Int64Counter
	notifications   metric.Int64Counter
	persistWrites   metric.Int64Counter
	persistFailures metric.Int64Counter
}

func newEngineMetrics(mp metric.MeterProvider) (*engineMetrics, error) {
	meter := mp.Meter("github.com/oakmall/cartengine/internal/cart")

	commands, err := meter.Int64Counter("cart.commands",
		metric.WithDescription("Cart commands dispatched"))
	if err != nil {
		return nil, err
	}
	notifications, err := meter.Int64Counter("cart.notifications",
		metric.WithDescription("Notifications emitted to the sink"))
	if err != nil {
		return nil, err
	}
	persistWrites, err := meter.Int64Counter("cart.persist.writes",
		metric.WithDescription("Durable store writes attempted"))
	if err != nil {
		return nil, err
	}
	persistFailures, err := meter.Int64Counter("cart.persist.failures",
		metric.WithDescription("Durable store writes that failed"))
	if err != nil {
		return nil, err
	}

	return &engineMetrics{
		commands:        commands,
		notifications:   notifications,
		persistWrites:   persistWrites,
		persistFailures: persistFailures,
	}, nil
}

func (m *engineMetrics) command(cmd Command) {
	m.commands.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("command", commandName(cmd))))
}

func (m *engineMetrics) notification(n Notification) {
	m.notifications.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", string(n.Kind))))
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case AddItem:
		return "add_item"
	case RemoveItem:
		return "remove_item"
	case UpdateQuantity:
		return "update_quantity"
	case Clear:
		return "clear"
	case SetShipping:
		return "set_shipping"
	case SetDiscount:
		return "set_discount"
	case ToggleCart, OpenCart, CloseCart:
		return "visibility"
	default:
		return fmt.Sprintf("%T", cmd)
	}
}
