// Command promo-ingest loads promo codes from gzip-compressed code dumps
// into PostgreSQL. A code counts as valid when it appears in at least two of
// the input files; per-file bloom filters keep the cross-checking pass in
// memory even for dumps with hundreds of millions of lines.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/oakmall/cartengine/internal/promo"
	"github.com/oakmall/cartengine/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// namedRules maps well-known codes to their discount rules; every other
// valid code gets the default rule.
var namedRules = map[string]promo.Rule{
	"FIRSTBUY": {Type: promo.TypePercentage, Value: decimal.NewFromInt(15), Description: "First purchase: 15% off"},
	"FREESHIP": {Type: promo.TypeFixed, Value: decimal.RequireFromString("9.99"), Description: "Shipping on us"},
	"HALFCART": {Type: promo.TypePercentage, Value: decimal.NewFromInt(50), Description: "50% off entire cart"},
	"LOWESTGO": {Type: promo.TypeFreeLowest, Value: decimal.Zero, MinItems: 2, Description: "Cheapest item free (buy 2+)"},
	"TENNERRR": {Type: promo.TypeFixed, Value: decimal.NewFromInt(10), Description: "$10 off your cart"},
}

var defaultRule = promo.Rule{
	Type:        promo.TypePercentage,
	Value:       decimal.NewFromInt(10),
	Description: "Valid promo code: 10% off",
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing .gz code dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list code dumps")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 code dumps in %s, found %d", dataDir, len(files))
	}
	sort.Strings(files)

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: cross-checking codes")
	codes, err := collectValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeRules(ctx, postgres.NewPromoRepository(pool), codes)
}

// buildFilters streams every file once, concurrently, and fills one bloom
// filter per file with its plausible codes.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var count uint64

			err := eachCode(ctx, path, func(code string) {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "fill filter for %s", path)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collectValidCodes re-streams every file and tests its codes against the
// other files' filters, then keeps the codes whose merged presence bitmask
// spans two or more files.
func collectValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	perFile := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			bit := uint(1) << uint(i)

			err := eachCode(ctx, path, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						candidates[code] |= bit
						break
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "cross-check %s", path)
			}

			slog.Info("pass 2 complete", slog.Int("file", i+1), slog.Int("candidates", len(candidates)))
			perFile[i] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, candidates := range perFile {
		for code, mask := range candidates {
			merged[code] |= mask
		}
	}

	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}
	return valid, nil
}

// eachCode streams a gzip-compressed file line by line, calling fn for every
// line within the plausible code length bounds.
func eachCode(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if code := scanner.Text(); len(code) >= minCodeLen && len(code) <= maxCodeLen {
			fn(code)
		}
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// writeRules upserts a rule for every valid code.
func writeRules(ctx context.Context, repo *postgres.PromoRepository, codes []string) error {
	slog.Info("writing promo rules", slog.Int("count", len(codes)))

	for i, code := range codes {
		rule, ok := namedRules[code]
		if !ok {
			rule = defaultRule
		}
		rule.Code = code

		if err := repo.Upsert(ctx, &rule); err != nil {
			return errors.Wrapf(err, "upsert promo %s", code)
		}
		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}
	return nil
}
