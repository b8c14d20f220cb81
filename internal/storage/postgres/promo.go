package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oakmall/cartengine/internal/promo"
)

const (
	findPromoByCodeSQL = `SELECT code, discount_type, value, min_items, description,
		valid_from, valid_until, max_uses, uses, max_discount
		FROM promos WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	incrementPromoUsesSQL = `UPDATE promos SET uses = uses + 1 WHERE code = $1`

	upsertPromoSQL = `INSERT INTO promos (code, discount_type, value, min_items, description, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_items = EXCLUDED.min_items,
			description = EXCLUDED.description,
			active = EXCLUDED.active`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active rule by its code (case-insensitive).
// Returns promo.ErrUnknownCode when no matching active rule exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, findPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrUnknownCode
		}
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}
	return &rule, nil
}

// IncrementUses atomically increments the usage counter for the given code.
func (r *PromoRepository) IncrementUses(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, incrementPromoUsesSQL, code); err != nil {
		return fmt.Errorf("incrementing uses for promo %q: %w", code, err)
	}
	return nil
}

// Upsert inserts or replaces a rule, used by the ingest tool.
func (r *PromoRepository) Upsert(ctx context.Context, rule *promo.Rule) error {
	_, err := r.pool.Exec(ctx, upsertPromoSQL,
		rule.Code, string(rule.Type), rule.Value, int32(rule.MinItems), rule.Description, true,
	)
	if err != nil {
		return fmt.Errorf("upserting promo %q: %w", rule.Code, err)
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule         promo.Rule
		discountType string
		value        decimal.Decimal
		minItems     int32
		validFrom    *time.Time
		validUntil   *time.Time
		maxUses      int32
		uses         int32
		maxDiscount  decimal.Decimal
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &minItems, &rule.Description,
		&validFrom, &validUntil, &maxUses, &uses, &maxDiscount,
	)
	rule.Type = promo.Type(discountType)
	rule.Value = value
	rule.MinItems = int(minItems)
	rule.ValidFrom = validFrom
	rule.ValidUntil = validUntil
	rule.MaxUses = int(maxUses)
	rule.Uses = int(uses)
	rule.MaxDiscount = maxDiscount
	return rule, err
}
