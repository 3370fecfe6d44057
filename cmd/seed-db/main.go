package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/storage/postgres"
)

type options struct {
	databaseURL    string
	menuFile       string
	customerAPIKey string
	adminAPIKey    string
	adminRestID    string
	apiKeyPepper   string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.menuFile, "menu-file", "db/seed/menu.json", "path to restaurants and menu JSON file")
	flag.StringVar(&opts.customerAPIKey, "customer-api-key", "", "customer API key to seed (or FOODHUB_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&opts.adminAPIKey, "admin-api-key", "", "admin API key to seed (or FOODHUB_SEED_ADMIN_KEY env)")
	flag.StringVar(&opts.adminRestID, "admin-restaurant", "", "restaurant managed by the seeded admin (defaults to the first restaurant)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or FOODHUB_API_KEY_PEPPER env)")
	flag.Parse()

	opts.databaseURL = firstNonEmpty(opts.databaseURL, os.Getenv("DATABASE_URL"))
	opts.customerAPIKey = firstNonEmpty(opts.customerAPIKey, os.Getenv("FOODHUB_SEED_CUSTOMER_KEY"))
	opts.adminAPIKey = firstNonEmpty(opts.adminAPIKey, os.Getenv("FOODHUB_SEED_ADMIN_KEY"))
	opts.apiKeyPepper = firstNonEmpty(opts.apiKeyPepper, os.Getenv("FOODHUB_API_KEY_PEPPER"))

	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.customerAPIKey == "" && opts.adminAPIKey == "" {
		slog.Error("at least one API key is required: set --customer-api-key or --admin-api-key")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func run(ctx context.Context, opts options) error {
	slog.Info("reading menu file", slog.String("path", opts.menuFile))

	data, err := os.ReadFile(opts.menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}
	seed, err := parseSeed(data)
	if err != nil {
		return errors.Wrap(err, "parse menu file")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, postgres.NewMenuRepository(pool), seed); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedOffers(ctx, postgres.NewOfferRepository(pool)); err != nil {
		return errors.Wrap(err, "seed offers")
	}

	keys := apiKeys(opts, seed)
	if err := seedAPIKeys(ctx, postgres.NewAPIKeyRepository(pool), []byte(opts.apiKeyPepper), keys); err != nil {
		return errors.Wrap(err, "seed api keys")
	}
	return nil
}

func seedMenu(ctx context.Context, repo *postgres.MenuRepository, seed *seedFile) error {
	restaurants, items := seed.domain()
	slog.Info("upserting menu", slog.Int("restaurants", len(restaurants)), slog.Int("items", len(items)))

	for _, rs := range restaurants {
		if err := repo.UpsertRestaurant(ctx, rs); err != nil {
			return err
		}
		slog.Info("upserted restaurant", slog.String("id", rs.ID), slog.String("name", rs.Name))
	}
	for _, it := range items {
		if err := repo.UpsertItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func seedOffers(ctx context.Context, repo *postgres.OfferRepository) error {
	slog.Info("seeding offers and coupons")

	for _, o := range offer.DefaultOffers {
		if err := repo.UpsertOffer(ctx, o); err != nil {
			return err
		}
		slog.Info("upserted offer", slog.String("id", o.ID), slog.String("title", o.Title))
	}
	if err := repo.UpsertCoupons(ctx, offer.DefaultCoupons); err != nil {
		return err
	}
	for _, c := range offer.DefaultCoupons {
		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("amount", c.Amount.StringFixed(2)))
	}
	return nil
}

// seedKey pairs a plain API key with the session it authenticates.
type seedKey struct {
	key     string
	name    string
	session auth.Session
}

func apiKeys(opts options, seed *seedFile) []seedKey {
	var keys []seedKey
	if opts.customerAPIKey != "" {
		keys = append(keys, seedKey{
			key:     opts.customerAPIKey,
			name:    "Default customer key",
			session: auth.Session{UserID: "customer-1", UserType: auth.UserCustomer},
		})
	}
	if opts.adminAPIKey != "" {
		rid := opts.adminRestID
		if rid == "" && len(seed.Restaurants) > 0 {
			rid = seed.Restaurants[0].ID
		}
		keys = append(keys, seedKey{
			key:     opts.adminAPIKey,
			name:    "Default admin key",
			session: auth.Session{UserID: "admin-1", UserType: auth.UserAdmin, RestaurantID: rid},
		})
	}
	return keys
}

func seedAPIKeys(ctx context.Context, repo *postgres.APIKeyRepository, pepper []byte, keys []seedKey) error {
	for _, k := range keys {
		info := auth.APIKeyInfo{
			ID:      k.session.UserID,
			KeyHash: auth.HashKey(pepper, k.key),
			Name:    k.name,
			Session: k.session,
		}
		if err := repo.UpsertAPIKey(ctx, info); err != nil {
			return err
		}
		slog.Info("upserted API key",
			slog.String("id", info.ID),
			slog.String("user_type", string(k.session.UserType)),
			slog.String("restaurant_id", k.session.RestaurantID),
		)
	}
	return nil
}
