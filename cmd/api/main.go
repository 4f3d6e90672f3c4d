package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/floragems/floragems-backend/api/routes"
	"github.com/floragems/floragems-backend/internal/cart"
	"github.com/floragems/floragems-backend/internal/inventory"
	"github.com/floragems/floragems-backend/internal/orders"
	"github.com/floragems/floragems-backend/internal/products"
	"github.com/floragems/floragems-backend/internal/reviews"
	"github.com/floragems/floragems-backend/internal/stats"
	"github.com/floragems/floragems-backend/internal/subcategories"
	"github.com/floragems/floragems-backend/internal/users"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/db"
	"github.com/floragems/floragems-backend/pkg/logger"
	"github.com/floragems/floragems-backend/pkg/mailer"
	"github.com/floragems/floragems-backend/pkg/metrics"
	"github.com/floragems/floragems-backend/pkg/migrate"
	"github.com/floragems/floragems-backend/pkg/redis"
	"github.com/floragems/floragems-backend/pkg/stripe"
	"github.com/prometheus/client_golang/prometheus"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key not set, card payments disabled")
	}

	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		smtp, err := mailer.NewSMTPMailer(cfg.SMTP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap smtp mailer", err)
			os.Exit(1)
		}
		mail = smtp
	}

	gdb := dbClient.DB()

	usersRepo := users.NewRepository(gdb)
	usersSvc, err := users.NewService(
		usersRepo,
		users.NewGoogleVerifier(cfg.Google),
		mail,
		cfg.JWT,
		cfg.Admin,
		cfg.Password,
		logg,
	)
	fatalIfErr(logg, "users service", err)

	productsRepo := products.NewRepository(gdb)
	productsSvc, err := products.NewService(productsRepo)
	fatalIfErr(logg, "products service", err)

	subCategoriesSvc, err := subcategories.NewService(gdb)
	fatalIfErr(logg, "subcategories service", err)

	cartRepo := cart.NewRepository(gdb)
	cartSvc, err := cart.NewService(cartRepo, productsRepo)
	fatalIfErr(logg, "cart service", err)

	ordersRepo := orders.NewRepository(gdb)
	ordersSvc, err := orders.NewService(
		ordersRepo,
		dbClient,
		inventory.NewAdjuster(),
		orders.NewStripeGateway(stripeClient),
		cart.NewClearer(cartRepo),
		cfg.Checkout,
	)
	fatalIfErr(logg, "orders service", err)

	reviewsSvc, err := reviews.NewService(gdb, ordersRepo, usersRepo)
	fatalIfErr(logg, "reviews service", err)

	statsSvc, err := stats.NewService(gdb)
	fatalIfErr(logg, "stats service", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		HTTPMetrics:   httpMetrics,
		BlockChecker:  usersRepo,
		Users:         usersSvc,
		Products:      productsSvc,
		SubCategories: subCategoriesSvc,
		Cart:          cartSvc,
		Orders:        ordersSvc,
		Reviews:       reviewsSvc,
		Stats:         statsSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func fatalIfErr(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
