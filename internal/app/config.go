package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmall/cartengine/internal/cart"
)

// Config holds the complete application configuration, loadable from
// environment variables (CARTD_ prefix), flags, or YAML config files.
type Config struct {
	StoreDir    string `default:"" usage:"Cart store directory (defaults to ~/.cartd)" flag:"store-dir"`
	CatalogPath string `default:"" usage:"Path to a gzip-compressed JSON catalog file" flag:"catalog"`
	DatabaseURL string `default:"" usage:"PostgreSQL URL for promo rules (CARTD_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the pricing policy constants as decimal strings.
type PricingConfig struct {
	TaxRate               string `default:"0.08" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
	FreeShippingThreshold string `default:"50"   usage:"Subtotal at which shipping becomes free" flag:"free-shipping-threshold"`
	FlatShippingRate      string `default:"9.99" usage:"Flat shipping rate below the threshold" flag:"flat-shipping-rate"`
}

// GracefulConfig controls shutdown timing.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"5s" usage:"Maximum time to drain pending cart writes" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CARTD",
		Files:     []string{"config.yaml", "/etc/cartd/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if _, err := cfg.CartPricing(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CartPricing parses the pricing strings into the engine's policy values.
func (c *Config) CartPricing() (cart.Pricing, error) {
	taxRate, err := decimal.NewFromString(c.Pricing.TaxRate)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "parse tax rate")
	}
	threshold, err := decimal.NewFromString(c.Pricing.FreeShippingThreshold)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "parse free shipping threshold")
	}
	flatRate, err := decimal.NewFromString(c.Pricing.FlatShippingRate)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "parse flat shipping rate")
	}
	return cart.Pricing{
		TaxRate:               taxRate,
		FreeShippingThreshold: threshold,
		FlatShippingRate:      flatRate,
	}, nil
}

// applyPlatformDefaults maps standard environment variables and fills the
// store directory fallback.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.StoreDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.StoreDir = filepath.Join(home, ".cartd")
	}
}
