package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/storage/postgres"
)

func main() {
	var (
		dataDir       string
		pattern       string
		databaseURL   string
		defaultAmount string
		cfg           importConfig
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing gzip-compressed coupon lists")
	flag.StringVar(&pattern, "pattern", "*.gz", "glob selecting coupon lists inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&defaultAmount, "default-amount", "50", "discount for codes listed without an amount")
	flag.IntVar(&cfg.MinSources, "min-sources", 2, "number of lists a code must appear in to be accepted")
	flag.UintVar(&cfg.ExpectedCodes, "expected-codes", 120_000_000, "expected codes per list, sizes the bloom filters")
	flag.IntVar(&cfg.BatchSize, "batch-size", 1000, "coupons per database batch")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	amount, err := decimal.NewFromString(defaultAmount)
	if err != nil || amount.IsNegative() {
		slog.Error("invalid --default-amount", slog.String("value", defaultAmount))
		os.Exit(1)
	}
	cfg.DefaultAmount = amount

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, filepath.Join(dataDir, pattern), databaseURL, cfg); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, glob, databaseURL string, cfg importConfig) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrapf(err, "match %s", glob)
	}
	if len(files) == 0 {
		return errors.Errorf("no coupon lists match %s", glob)
	}

	coupons, err := collectCoupons(ctx, files, cfg)
	if err != nil {
		return err
	}
	slog.Info("accepted codes", slog.Int("count", len(coupons)))

	if len(coupons) == 0 {
		slog.Info("no coupons to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewOfferRepository(pool)
	return writeBatches(ctx, coupons, cfg.BatchSize, repo.UpsertCoupons)
}
