package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/saree-storefront/api/controllers"
	"github.com/angelmondragon/saree-storefront/api/routes"
	"github.com/angelmondragon/saree-storefront/internal/auth"
	"github.com/angelmondragon/saree-storefront/internal/cart"
	"github.com/angelmondragon/saree-storefront/internal/docstore"
	product "github.com/angelmondragon/saree-storefront/internal/products"
	"github.com/angelmondragon/saree-storefront/internal/users"
	"github.com/angelmondragon/saree-storefront/internal/wishlist"
	"github.com/angelmondragon/saree-storefront/pkg/auth/session"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/instance"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/migrate"
	"github.com/angelmondragon/saree-storefront/pkg/redis"
	"github.com/angelmondragon/saree-storefront/pkg/security"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	productRepo := product.NewRepository(dbClient.DB())
	if cfg.FeatureFlags.SeedCatalog {
		n, err := product.SeedCatalog(ctx, productRepo, logg)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "products", n), "catalog seeded")
	}

	checks := map[string]controllers.Pinger{"db": dbClient}

	var (
		sessionStore session.Store
		limiter      routes.RateLimiter
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		sessionStore = redisClient
		limiter = redisClient
		checks["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; sessions are process-local and auth rate limiting is off")
		sessionStore = session.NewMemoryStore()
	}

	sessionManager, err := session.NewManager(sessionStore, cfg.JWT)
	if err != nil {
		return err
	}

	stores, err := docstore.Open(ctx, cfg.Mirror, cfg.GCP, dbClient.DB(), logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logg.Error(context.Background(), "error closing mirror stores", err)
		}
	}()

	productService, err := product.NewService(productRepo)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{CartRepo: stores.Carts, ProductRepo: productRepo})
	if err != nil {
		return err
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{WishlistRepo: stores.Wishlists, ProductRepo: productRepo})
	if err != nil {
		return err
	}

	hasher := security.NewHasher(cfg.Password)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		PasswordHasher: hasher,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		PasswordHasher: hasher,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		Sessions: sessionManager,
		Limiter:  limiter,
		Registry: registry,
		Checks:   checks,
	}, routes.Services{
		Auth:     authService,
		Register: registerService,
		Products: productService,
		Cart:     cartService,
		Wishlist: wishlistService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"mirror":   stores.Driver,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
