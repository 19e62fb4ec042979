package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/boletera/admin-gateway/api/controllers"
	"github.com/boletera/admin-gateway/api/routes"
	"github.com/boletera/admin-gateway/internal/confirmation"
	"github.com/boletera/admin-gateway/internal/pricing"
	"github.com/boletera/admin-gateway/internal/providers"
	"github.com/boletera/admin-gateway/internal/purchases"
	"github.com/boletera/admin-gateway/pkg/backend"
	"github.com/boletera/admin-gateway/pkg/config"
	"github.com/boletera/admin-gateway/pkg/db"
	"github.com/boletera/admin-gateway/pkg/logger"
	"github.com/boletera/admin-gateway/pkg/metrics"
	"github.com/boletera/admin-gateway/pkg/migrate"
	"github.com/boletera/admin-gateway/pkg/redis"
	pkgstripe "github.com/boletera/admin-gateway/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "admin-gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "admin-gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tokens := backend.NewTokenProvider(cfg.Backend)
	backendClient, err := backend.New(cfg.Backend, tokens, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build backend client", err)
		os.Exit(1)
	}

	statusLookup, err := buildStatusLookup(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build provider lookup", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	confirmationMetrics := metrics.NewConfirmationMetrics(registry)

	pricingService := pricing.NewService(
		pricing.NewHTTPCalculator(backendClient),
		redisClient,
		cfg.Pricing,
		logg,
	)

	supportStore := confirmation.NewStore(dbClient.DB())

	resolver := confirmation.NewResolver(
		purchases.NewClient(backendClient, logg),
		statusLookup,
		supportStore,
		confirmation.NewTimerScheduler(),
		confirmation.PolicyFromConfig(cfg.Confirmation),
		confirmationMetrics,
		logg,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting admin gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			pricingService,
			resolver,
			supportStore,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "admin gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildStatusLookup picks the configured payment provider. Stripe wins when
// both are configured because it is the primary checkout integration.
func buildStatusLookup(cfg *config.Config, logg *logger.Logger) (providers.StatusLookup, error) {
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		return providers.NewStripeLookup(providers.NewStripeSessionAPI(stripeClient)), nil
	}
	if cfg.MercadoPago.AccessToken != "" {
		return providers.NewMercadoPagoLookup(cfg.MercadoPago)
	}
	logg.Warn(context.Background(), "no payment provider configured, confirmations rely on the backend only")
	return nil, nil
}
