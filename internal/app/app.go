// Package app wires the cart engine to its collaborators and runs the
// interactive session.
package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakmall/cartengine/internal/cart"
	"github.com/oakmall/cartengine/internal/catalog"
	"github.com/oakmall/cartengine/internal/promo"
	"github.com/oakmall/cartengine/internal/storage/filestore"
	"github.com/oakmall/cartengine/internal/storage/postgres"
)

// Run creates all dependencies, restores the persisted cart, and drives the
// interactive session until EOF or cancellation. It is the single wiring
// point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	pricing, err := cfg.CartPricing()
	if err != nil {
		return err
	}

	store, err := filestore.New(cfg.StoreDir)
	if err != nil {
		return errors.Wrap(err, "create cart store")
	}

	products, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	// Promo validation is optional: without a database the session still
	// accepts raw discount amounts.
	var validator promo.Validator
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		validator = promo.NewRepoValidator(postgres.NewPromoRepository(pool))
	}

	session := &Session{
		Catalog:   products,
		Validator: validator,
		Out:       os.Stdout,
	}

	engine, err := cart.New(
		cart.Config{Pricing: pricing},
		store,
		session.Notifier(),
		lg,
		m.MeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create cart engine")
	}

	engine.Load(ctx)
	lg.Info("cart restored",
		zap.Int("items", engine.Snapshot().TotalItems),
		zap.String("store", cfg.StoreDir),
	)

	session.Engine = engine
	runErr := session.Run(ctx, os.Stdin)

	// Drain pending persistence before exit.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
	defer cancel()
	if err := engine.Close(shutdownCtx); err != nil {
		lg.Error("cart engine shutdown", zap.Error(err))
	}

	return runErr
}

// loadCatalog loads the gz catalog file when configured, falling back to a
// small built-in catalog so the demo works out of the box.
func loadCatalog(cfg *Config) (catalog.Repository, error) {
	if cfg.CatalogPath != "" {
		repo, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
		return repo, nil
	}
	return catalog.NewMemoryRepository(demoProducts()...), nil
}

func demoProducts() []catalog.Product {
	seller := catalog.Seller{ID: "s1", BusinessName: "Oakmall Outfitters"}
	return []catalog.Product{
		{
			ID: "p1", Name: "Canvas Tote", Slug: "canvas-tote",
			Price: decimal.RequireFromString("20.00"), Stock: 5,
			Seller: seller,
		},
		{
			ID: "p2", Name: "Enamel Mug", Slug: "enamel-mug",
			Price:          decimal.RequireFromString("10.00"),
			CompareAtPrice: decimal.RequireFromString("14.00"),
			Stock:          2,
			Seller:         seller,
		},
		{
			ID: "p3", Name: "Wool Beanie", Slug: "wool-beanie",
			Price: decimal.RequireFromString("18.50"), Stock: 8,
			Seller: seller,
		},
	}
}
