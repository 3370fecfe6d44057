package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/handler"
	"github.com/xenking/foodhub/internal/storage/kafka"
	"github.com/xenking/foodhub/internal/storage/postgres"
	"github.com/xenking/foodhub/internal/storage/redis"
	"github.com/xenking/foodhub/pkg/health"
	"github.com/xenking/foodhub/pkg/httpmiddleware"
)

const serviceName = "foodhub-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.Register(health.Readiness, "postgres", health.CheckOptions{Timeout: 5 * time.Second}, health.PingCheck(pool))
	healthSvc.Register(health.Liveness, "goroutines", health.CheckOptions{Timeout: time.Second}, health.GoroutineCountCheck(10000))

	// Repositories.
	menuStore := postgres.NewMenuRepository(pool)
	var menuRepo menu.Repository = menuStore
	var catalogOpts []catalog.Option
	offerRepo := postgres.NewOfferRepository(pool)
	orderStore := postgres.NewOrderStore(pool, m.TracerProvider())
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	if cfg.Redis.Addr != "" {
		rdb, err := newRedisClient(cfg.Redis.Addr)
		if err != nil {
			return errors.Wrap(err, "create redis client")
		}
		defer func() { _ = rdb.Close() }()

		cache := redis.NewMenuCache(rdb, menuStore, cfg.Redis.TTL)
		menuRepo = cache
		catalogOpts = append(catalogOpts, catalog.WithInvalidator(cache))
		healthSvc.Register(health.Readiness, "redis", health.CheckOptions{Timeout: 2 * time.Second}, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		lg.Info("Menu cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	// Domain services.
	opts := []order.Option{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := kafka.NewPublisher(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer func() {
			if err := pub.Close(); err != nil {
				lg.Error("Close event publisher", zap.Error(err))
			}
		}()
		opts = append(opts, order.WithPublisher(pub))
		healthSvc.Register(health.Readiness, "kafka", health.CheckOptions{Timeout: 2 * time.Second, FailureThreshold: 3}, health.DialCheck(cfg.Kafka.Brokers...))
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	resolver := offer.NewResolver(offerRepo, offer.ResolverConfig{Strict: cfg.Coupons.Strict})
	orderService := order.NewService(menuRepo, resolver, orderStore, opts...)
	catalogService := catalog.NewService(catalog.Stores{
		Menu:        menuRepo,
		MenuWriter:  menuStore,
		Offers:      offerRepo,
		OfferWriter: offerRepo,
	}, catalogOpts...)

	// HTTP handlers.
	h, err := handler.NewHandler(
		handler.HandlerConfig{TrackingBaseURL: cfg.TrackingBaseURL},
		orderService,
		catalogService,
		handler.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper)),
		m.MeterProvider().Meter(serviceName),
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.Origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", handler.APIKeyHeader},
			ExposedHeaders:   []string{httpmiddleware.RequestIDHeader, "Location"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(serviceName, m),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Mount(r)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           r,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newRedisClient accepts both host:port and redis:// URLs.
func newRedisClient(addr string) (*goredis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return goredis.NewClient(opts), nil
	}
	return goredis.NewClient(&goredis.Options{Addr: addr}), nil
}
