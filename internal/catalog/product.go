// Package catalog models the product catalog the cart engine consults when
// items are added or revalidated. The catalog itself lives elsewhere; the
// engine only reads price and stock through the Repository seam.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Seller identifies the merchant selling a product.
type Seller struct {
	ID           string
	BusinessName string
}

// Product is a catalog entry. Stock is the quantity ceiling handed to the
// cart as a line's MaxQuantity at add-time.
type Product struct {
	ID             string
	Name           string
	Slug           string
	Price          decimal.Decimal
	CompareAtPrice decimal.Decimal
	Stock          int
	Image          string
	Seller         Seller
}

// Repository defines read operations over the catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
