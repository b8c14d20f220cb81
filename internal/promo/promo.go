// Package promo computes discount amounts from promo codes. The cart engine
// takes the result as an opaque absolute amount; rule lookup, validity and
// usage accounting all live here.
package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage applies a percentage-based discount to the subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
	// TypeFreeLowest removes the cost of the cheapest unit in the cart.
	TypeFreeLowest Type = "free_lowest"
)

var (
	// ErrUnknownCode is returned when a promo code is not found or the cart
	// does not satisfy the rule's minimum item requirement.
	ErrUnknownCode = errors.New("unknown promo code")
	// ErrExpired is returned when a rule is outside its valid time window.
	ErrExpired = errors.New("promo code expired")
	// ErrUsageLimitReached is returned when a rule has exhausted its uses.
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
)

// Rule defines a promo code's discount behaviour and eligibility.
type Rule struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinItems    int
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	MaxUses     int
	Uses        int
	// MaxDiscount caps the computed amount when positive.
	MaxDiscount decimal.Decimal
}

// Discount is the computed result of applying a rule.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line as seen by discount calculation.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Repository provides lookup and usage accounting for rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
}
