package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/saree-storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/saree-storefront/api/controllers/cart"
	"github.com/angelmondragon/saree-storefront/api/middleware"
	"github.com/angelmondragon/saree-storefront/internal/auth"
	"github.com/angelmondragon/saree-storefront/internal/cart"
	product "github.com/angelmondragon/saree-storefront/internal/products"
	"github.com/angelmondragon/saree-storefront/internal/wishlist"
	"github.com/angelmondragon/saree-storefront/pkg/auth/session"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/metrics"
)

// RateLimiter backs the auth throttling counters. A nil RateLimiter disables
// throttling.
type RateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Services bundles the domain services the router exposes.
type Services struct {
	Auth     auth.Service
	Register auth.RegisterService
	Products product.Service
	Cart     cart.Service
	Wishlist wishlist.Service
}

// Infra bundles the cross-cutting dependencies of the router.
type Infra struct {
	Sessions session.AccessSessionChecker
	Limiter  RateLimiter
	Registry *prometheus.Registry
	Checks   map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()

	var registerer prometheus.Registerer
	if infra.Registry != nil {
		registerer = infra.Registry
	}
	httpMetrics := metrics.NewHTTPMetrics(registerer)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Logging(logg, httpMetrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Checks))
	})

	if infra.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svc.Products, logg))
		r.Get("/{productId}", controllers.ProductGet(svc.Products, logg))
	})

	requireAuth := middleware.Auth(cfg.JWT, infra.Sessions, logg)

	r.Route("/api/auth", func(r chi.Router) {
		if infra.Limiter != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, infra.Limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, infra.Limiter, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
		} else {
			r.Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/register", controllers.AuthRegister(svc.Register, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
		r.Post("/", cartcontrollers.CartUpsert(svc.Cart, logg))
		r.Put("/", cartcontrollers.CartUpdate(svc.Cart, logg))
		r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
		r.Delete("/{productId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.WishlistList(svc.Wishlist, logg))
		r.Post("/", controllers.WishlistAddItem(svc.Wishlist, logg))
		r.Delete("/", controllers.WishlistDelete(svc.Wishlist, logg))
	})

	return r
}
