package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/oakmall/cartengine/internal/catalog"
	"github.com/oakmall/cartengine/internal/storage"
)

const (
	// DefaultStoreKey names the single durable-store record holding the
	// serialized item list.
	DefaultStoreKey = "cart:items"

	persistTimeout = 5 * time.Second
)

// Config holds non-dependency configuration for the Engine.
type Config struct {
	Pricing Pricing
	// StoreKey overrides the durable-store record name. Defaults to
	// DefaultStoreKey.
	StoreKey string
}

// Engine owns the canonical cart state and is the only writer of it. Command
// methods are synchronous and never return errors: impossible commands are
// no-ops and quantity violations saturate, per the cart's failure semantics.
// Persistence runs on a background goroutine and never gates a command.
//
// The Engine serializes nothing itself: callers must issue commands from a
// single goroutine, the same way a UI event loop serializes its handlers.
type Engine struct {
	pricing  Pricing
	storeKey string

	store    storage.DurableStore
	notifier Notifier
	lg       *zap.Logger
	metrics  *engineMetrics

	state State

	persistCh chan []Item
	drained   chan struct{}
}

// New constructs an Engine and starts its persistence loop. Call Close to
// drain pending writes before discarding it.
func New(
	cfg Config,
	store storage.DurableStore,
	notifier Notifier,
	lg *zap.Logger,
	mp metric.MeterProvider,
) (*Engine, error) {
	if cfg.StoreKey == "" {
		cfg.StoreKey = DefaultStoreKey
	}
	if notifier == nil {
		notifier = NopNotifier()
	}

	m, err := newEngineMetrics(mp)
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}

	e := &Engine{
		pricing:   cfg.Pricing,
		storeKey:  cfg.StoreKey,
		store:     store,
		notifier:  notifier,
		lg:        lg,
		metrics:   m,
		state:     NewState(),
		persistCh: make(chan []Item, 1),
		drained:   make(chan struct{}),
	}
	go e.persistLoop()
	return e, nil
}

// Load replays the persisted item list into the engine. A missing record
// starts an empty cart; a malformed record is discarded and deleted, never
// surfaced past the log. Call once before issuing commands.
func (e *Engine) Load(ctx context.Context) {
	data, err := e.store.Get(ctx, e.storeKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.lg.Warn("cart record unreadable, starting empty", zap.Error(err))
		}
		return
	}

	items, err := DecodeItems(data)
	if err != nil {
		e.lg.Warn("cart record malformed, discarding", zap.Error(err))
		if err := e.store.Delete(ctx, e.storeKey); err != nil {
			e.lg.Warn("discard cart record", zap.Error(err))
		}
		return
	}

	e.state.Items = items
	e.state = e.pricing.recompute(e.state)
}

// Close drains the persistence loop. No commands may be issued after Close.
func (e *Engine) Close(ctx context.Context) error {
	close(e.persistCh)
	select {
	case <-e.drained:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "drain persistence")
	}
}

// AddItem adds the item to the cart. A zero quantity means one. Items
// without an ID get a generated line ID.
func (e *Engine) AddItem(item Item, quantity int) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	e.dispatch(AddItem{Item: item, Quantity: quantity})
}

// RemoveItem removes the line with the given ID. Idempotent.
func (e *Engine) RemoveItem(id string) {
	e.dispatch(RemoveItem{ID: id})
}

// UpdateQuantity sets a line's quantity, clamped to the line's maximum.
// Zero or negative removes the line.
func (e *Engine) UpdateQuantity(id string, quantity int) {
	e.dispatch(UpdateQuantity{ID: id, Quantity: quantity})
}

// Clear empties the cart.
func (e *Engine) Clear() {
	e.dispatch(Clear{})
}

// SetShipping overrides the shipping amount, e.g. from a rate lookup.
func (e *Engine) SetShipping(amount decimal.Decimal) {
	e.dispatch(SetShipping{Amount: amount})
}

// ApplyDiscount sets the absolute discount amount. The engine trusts the
// caller on its legitimacy; the grand total is floored at zero regardless.
func (e *Engine) ApplyDiscount(amount decimal.Decimal) {
	e.dispatch(SetDiscount{Amount: amount})
}

// ToggleCart flips the UI visibility flag.
func (e *Engine) ToggleCart() { e.dispatch(ToggleCart{}) }

// OpenCart sets the UI visibility flag.
func (e *Engine) OpenCart() { e.dispatch(OpenCart{}) }

// CloseCart clears the UI visibility flag.
func (e *Engine) CloseCart() { e.dispatch(CloseCart{}) }

// Snapshot returns a detached read-only view for checkout and rendering.
func (e *Engine) Snapshot() Snapshot {
	return e.state.snapshot()
}

// IsOpen reports the UI visibility flag.
func (e *Engine) IsOpen() bool {
	return e.state.IsOpen
}

// ItemCount sums quantities across all lines for the given product.
func (e *Engine) ItemCount(productID string) int {
	return e.state.ItemCount(productID)
}

// IsInCart reports whether the product appears in the cart.
func (e *Engine) IsInCart(productID string) bool {
	return e.state.IsInCart(productID)
}

// FreeShippingProgress reports progress toward the free-shipping threshold.
func (e *Engine) FreeShippingProgress() FreeShippingProgress {
	return e.pricing.FreeShippingProgress(e.state.Subtotal)
}

// Revalidate refreshes every line's price and quantity ceiling against the
// catalog, dropping lines whose product disappeared or went out of stock.
// Long-lived carts otherwise check out at whatever price was captured at
// add-time; checkout flows can call this first.
func (e *Engine) Revalidate(ctx context.Context, repo catalog.Repository) error {
	if len(e.state.Items) == 0 {
		return nil
	}

	ids := make([]string, len(e.state.Items))
	for i, it := range e.state.Items {
		ids[i] = it.ProductID
	}
	products, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "fetch products")
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	next := e.state.clone()
	kept := next.Items[:0]
	for _, it := range next.Items {
		p, ok := byID[it.ProductID]
		if !ok || p.Stock < 1 {
			e.notify(Notification{Kind: NotifyItemRemoved, ItemName: it.Name})
			continue
		}
		it.Price = p.Price
		it.CompareAtPrice = p.CompareAtPrice
		it.MaxQuantity = p.Stock
		if it.Quantity > it.MaxQuantity {
			it.Quantity = it.MaxQuantity
		}
		kept = append(kept, it)
	}
	next.Items = kept

	e.state = e.pricing.recompute(next)
	e.enqueuePersist()
	return nil
}

// dispatch runs one command through the reducer, commits the new state, and
// executes the requested effects. State advances before any effect runs, so
// an effect failure can never roll a transition back.
func (e *Engine) dispatch(cmd Command) {
	next, effects := Reduce(e.pricing, e.state, cmd)
	e.state = next
	e.metrics.command(cmd)

	for _, eff := range effects {
		switch eff := eff.(type) {
		case NotifyEffect:
			e.notify(eff.Notification)
		case PersistEffect:
			e.enqueuePersist()
		}
	}
}

func (e *Engine) notify(n Notification) {
	e.metrics.notification(n)
	e.notifier.Notify(n)
}

// enqueuePersist hands the current item list to the persistence loop,
// replacing any still-pending write: only the latest item list matters.
func (e *Engine) enqueuePersist() {
	items := make([]Item, len(e.state.Items))
	for i, it := range e.state.Items {
		items[i] = it.clone()
	}
	for {
		select {
		case e.persistCh <- items:
			return
		default:
		}
		select {
		case <-e.persistCh:
		default:
		}
	}
}

// persistLoop writes queued item lists to the durable store. Failures are
// logged and counted, never propagated: the cart keeps working in memory.
func (e *Engine) persistLoop() {
	defer close(e.drained)
	for items := range e.persistCh {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := e.store.Set(ctx, e.storeKey, EncodeItems(items))
		cancel()

		e.metrics.persistWrites.Add(context.Background(), 1)
		if err != nil {
			e.metrics.persistFailures.Add(context.Background(), 1)
			e.lg.Warn("persist cart items", zap.Error(err), zap.Int("items", len(items)))
		}
	}
}
