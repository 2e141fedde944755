package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/marketmaster/marketmaster-backend/api/routes"
	"github.com/marketmaster/marketmaster-backend/internal/auth"
	"github.com/marketmaster/marketmaster-backend/internal/cart"
	"github.com/marketmaster/marketmaster-backend/internal/categories"
	"github.com/marketmaster/marketmaster-backend/internal/content"
	"github.com/marketmaster/marketmaster-backend/internal/orders"
	"github.com/marketmaster/marketmaster-backend/internal/products"
	"github.com/marketmaster/marketmaster-backend/internal/users"
	"github.com/marketmaster/marketmaster-backend/pkg/auth/session"
	"github.com/marketmaster/marketmaster-backend/pkg/config"
	"github.com/marketmaster/marketmaster-backend/pkg/db"
	"github.com/marketmaster/marketmaster-backend/pkg/kv"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
	"github.com/marketmaster/marketmaster-backend/pkg/metrics"
	"github.com/marketmaster/marketmaster-backend/pkg/migrate"
	"github.com/marketmaster/marketmaster-backend/pkg/redis"
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
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	closeAll := func() error {
		return multierr.Combine(redisClient.Close(), dbClient.Close())
	}

	handler, err := buildHandler(cfg, logg, dbClient, redisClient)
	if err != nil {
		return multierr.Append(err, closeAll())
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = err
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		runErr = server.Shutdown(shutdownCtx)
		<-serveErr
	}

	return multierr.Append(runErr, closeAll())
}

func buildHandler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, err
	}

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	categoriesRepo := categories.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	contentRepo := content.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		return nil, err
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		return nil, err
	}
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		return nil, err
	}
	categoriesService, err := categories.NewService(categoriesRepo)
	if err != nil {
		return nil, err
	}
	ordersService, err := orders.NewService(dbClient.DB(), ordersRepo, productsRepo)
	if err != nil {
		return nil, err
	}
	contentService, err := content.NewService(contentRepo, productsRepo, categoriesRepo)
	if err != nil {
		return nil, err
	}

	cartStore, err := kv.NewRedisStore(redisClient, cfg.Cart.SlotTTL)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cartStore, redisClient, logg, cart.NewLogNotifier(logg))
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	return routes.NewRouter(routes.Deps{
		Config:            cfg,
		Logger:            logg,
		DBPinger:          dbClient,
		CachePinger:       redisClient,
		SessionChecker:    sessionManager,
		HTTPMetrics:       httpMetrics,
		Registry:          registry,
		AuthService:       authService,
		UsersService:      usersService,
		ProductsService:   productsService,
		CategoriesService: categoriesService,
		CartService:       cartService,
		OrdersService:     ordersService,
		ContentService:    contentService,
	}), nil
}
