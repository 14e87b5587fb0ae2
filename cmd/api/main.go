package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/permanentprinting/storefront-backend/api/routes"
	"github.com/permanentprinting/storefront-backend/internal/auth"
	"github.com/permanentprinting/storefront-backend/internal/bulkorders"
	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/internal/catalog"
	"github.com/permanentprinting/storefront-backend/internal/orders"
	"github.com/permanentprinting/storefront-backend/internal/users"
	"github.com/permanentprinting/storefront-backend/pkg/auth/session"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/db"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	"github.com/permanentprinting/storefront-backend/pkg/migrate"
	"github.com/permanentprinting/storefront-backend/pkg/redis"
	"github.com/permanentprinting/storefront-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	pricing, err := cfg.Pricing.Parse()
	if err != nil {
		return fmt.Errorf("parse pricing: %w", err)
	}
	policy, promotions, err := cart.PolicyFromConfig(pricing, cfg.Cart)
	if err != nil {
		return fmt.Errorf("build pricing policy: %w", err)
	}

	catalogSource := catalog.NewDefaultSource()
	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return fmt.Errorf("create cart store: %w", err)
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:      cartStore,
		Products:   catalogSource,
		Policy:     policy,
		Promotions: promotions,
		Metrics:    metrics.NewCartMetrics(registry),
		Logger:     logg,
	})
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}

	gateway, err := orders.NewGateway(cfg.Payment)
	if err != nil {
		return fmt.Errorf("create payment gateway: %w", err)
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(dbClient.DB()),
		DB:      dbClient,
		Carts:   cartService,
		Gateway: gateway,
		Metrics: metrics.NewCheckoutMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return fmt.Errorf("create orders service: %w", err)
	}

	bulkOrdersService, err := bulkorders.NewService(bulkorders.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return fmt.Errorf("create bulk orders service: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			metrics.NewHTTPMetrics(registry),
			authService,
			catalogSource,
			cartService,
			ordersService,
			bulkOrdersService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(server.Shutdown(shutdownCtx), <-serveErr)
}
