package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmall/cartengine/internal/cart"
	"github.com/oakmall/cartengine/internal/catalog"
	"github.com/oakmall/cartengine/internal/promo"
)

// Session is a line-oriented interactive shell over the cart engine. It is
// the demo UI layer: it issues commands, renders snapshots, and prints the
// engine's notifications.
type Session struct {
	Engine    *cart.Engine
	Catalog   catalog.Repository
	Validator promo.Validator
	Out       io.Writer
}

// Notifier returns the session's notification sink: each message is printed
// as a toast-style line, with a view-cart hint when the notification carries
// the affordance.
func (s *Session) Notifier() cart.Notifier {
	return cart.NotifierFunc(func(n cart.Notification) {
		switch n.Kind {
		case cart.NotifyItemAdded:
			fmt.Fprintf(s.Out, "* added %d x %s to cart", n.Quantity, n.ItemName)
		case cart.NotifyItemRemoved:
			fmt.Fprintf(s.Out, "* removed %s from cart", n.ItemName)
		case cart.NotifyCartCleared:
			fmt.Fprint(s.Out, "* cart cleared")
		case cart.NotifyMaxQuantity:
			fmt.Fprintf(s.Out, "* only %d of %s available", n.Limit, n.ItemName)
		}
		if n.ShowCart {
			fmt.Fprint(s.Out, "  [show]")
		}
		fmt.Fprintln(s.Out)
	})
}

// Run reads commands from r until EOF, "quit", or context cancellation.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	// Cancel the reader goroutine when Run returns, e.g. on "quit" with
	// trailing input still buffered.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(s.Out, `cartd session ("help" lists commands)`)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(s.Out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.Out)
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return errors.Wrap(err, "read input")
				}
				return nil
			}
			if quit := s.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp()
	case "list":
		s.printCatalog(ctx)
	case "add":
		s.add(ctx, args)
	case "rm":
		if len(args) == 1 {
			s.Engine.RemoveItem(args[0])
		} else {
			fmt.Fprintln(s.Out, "usage: rm <line-id>")
		}
	case "qty":
		s.updateQuantity(args)
	case "clear":
		s.Engine.Clear()
	case "open":
		s.Engine.OpenCart()
	case "close":
		s.Engine.CloseCart()
	case "toggle":
		s.Engine.ToggleCart()
	case "ship":
		if amount, ok := s.parseAmount(args, "ship <amount>"); ok {
			s.Engine.SetShipping(amount)
		}
	case "discount":
		if amount, ok := s.parseAmount(args, "discount <amount>"); ok {
			s.Engine.ApplyDiscount(amount)
		}
	case "promo":
		s.applyPromo(ctx, args)
	case "progress":
		s.printProgress()
	case "revalidate":
		if err := s.Engine.Revalidate(ctx, s.Catalog); err != nil {
			fmt.Fprintf(s.Out, "revalidate failed: %v\n", err)
		}
	case "show", "checkout":
		if cmd == "checkout" {
			if err := s.Engine.Revalidate(ctx, s.Catalog); err != nil {
				fmt.Fprintf(s.Out, "revalidate failed: %v\n", err)
				return false
			}
		}
		s.printSnapshot()
	default:
		fmt.Fprintf(s.Out, "unknown command %q\n", cmd)
	}
	return false
}

func (s *Session) add(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.Out, "usage: add <product-id> [quantity]")
		return
	}
	quantity := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(s.Out, "bad quantity %q\n", args[1])
			return
		}
		quantity = n
	}

	p, err := s.Catalog.GetByID(ctx, args[0])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			fmt.Fprintf(s.Out, "no such product %q\n", args[0])
		} else {
			fmt.Fprintf(s.Out, "catalog lookup failed: %v\n", err)
		}
		return
	}

	s.Engine.AddItem(itemFromProduct(*p), quantity)
}

func (s *Session) updateQuantity(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.Out, "usage: qty <line-id> <quantity>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(s.Out, "bad quantity %q\n", args[1])
		return
	}
	s.Engine.UpdateQuantity(args[0], n)
}

func (s *Session) applyPromo(ctx context.Context, args []string) {
	if s.Validator == nil {
		fmt.Fprintln(s.Out, "promo codes unavailable: no database configured (use: discount <amount>)")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.Out, "usage: promo <code>")
		return
	}

	snap := s.Engine.Snapshot()
	items := make([]promo.Item, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = promo.Item{
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	d, err := s.Validator.Validate(ctx, args[0], items)
	if err != nil {
		fmt.Fprintf(s.Out, "promo rejected: %v\n", err)
		return
	}

	s.Engine.ApplyDiscount(d.Amount)
	fmt.Fprintf(s.Out, "applied %s: -%s (%s)\n", d.Code, d.Amount.StringFixed(2), d.Description)
}

func (s *Session) parseAmount(args []string, usage string) (decimal.Decimal, bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.Out, "usage: "+usage)
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		fmt.Fprintf(s.Out, "bad amount %q\n", args[0])
		return decimal.Zero, false
	}
	return amount, true
}

func (s *Session) printCatalog(ctx context.Context) {
	products, err := s.Catalog.List(ctx)
	if err != nil {
		fmt.Fprintf(s.Out, "catalog unavailable: %v\n", err)
		return
	}
	for _, p := range products {
		fmt.Fprintf(s.Out, "%-4s %-16s %8s  stock %d  (%s)\n",
			p.ID, p.Name, p.Price.StringFixed(2), p.Stock, p.Seller.BusinessName)
	}
}

func (s *Session) printSnapshot() {
	snap := s.Engine.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Fprintln(s.Out, "cart is empty")
		return
	}
	for _, it := range snap.Items {
		fmt.Fprintf(s.Out, "%-10s %d x %-16s @ %8s = %8s\n",
			it.ID, it.Quantity, it.Name, it.Price.StringFixed(2), it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(s.Out, "items    %d\n", snap.TotalItems)
	fmt.Fprintf(s.Out, "subtotal %s\n", snap.Subtotal.StringFixed(2))
	fmt.Fprintf(s.Out, "tax      %s\n", snap.Tax.StringFixed(2))
	fmt.Fprintf(s.Out, "shipping %s\n", snap.Shipping.StringFixed(2))
	if snap.Discount.IsPositive() {
		fmt.Fprintf(s.Out, "discount -%s\n", snap.Discount.StringFixed(2))
	}
	fmt.Fprintf(s.Out, "total    %s\n", snap.TotalPrice.StringFixed(2))
}

func (s *Session) printProgress() {
	p := s.Engine.FreeShippingProgress()
	if p.Qualified {
		fmt.Fprintln(s.Out, "free shipping unlocked")
		return
	}
	fmt.Fprintf(s.Out, "%s away from free shipping (%s / %s)\n",
		p.Remaining.StringFixed(2), p.Current.StringFixed(2), p.Target.StringFixed(2))
}

func (s *Session) printHelp() {
	fmt.Fprint(s.Out, `commands:
  list                     show the catalog
  add <product-id> [qty]   add a product to the cart
  rm <line-id>             remove a line
  qty <line-id> <n>        set a line's quantity (0 removes)
  clear                    empty the cart
  ship <amount>            override shipping
  discount <amount>        apply a raw discount amount
  promo <code>             apply a promo code (needs database)
  progress                 free-shipping progress
  revalidate               refresh prices and stock from the catalog
  show                     print the cart
  checkout                 revalidate, then print the final snapshot
  open | close | toggle    flip cart visibility
  quit
`)
}

// itemFromProduct captures a catalog product as a cart line at add-time. The
// line ID is derived from the product so repeated adds merge into one line;
// variant-aware callers supply their own IDs instead.
func itemFromProduct(p catalog.Product) cart.Item {
	return cart.Item{
		ID:             "line-" + p.ID,
		ProductID:      p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		MaxQuantity:    p.Stock,
		Image:          p.Image,
		Seller: cart.Seller{
			ID:           p.Seller.ID,
			BusinessName: p.Seller.BusinessName,
		},
	}
}
