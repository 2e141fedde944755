package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketmaster/marketmaster-backend/api/controllers"
	"github.com/marketmaster/marketmaster-backend/api/middleware"
	"github.com/marketmaster/marketmaster-backend/internal/auth"
	"github.com/marketmaster/marketmaster-backend/internal/cart"
	"github.com/marketmaster/marketmaster-backend/internal/categories"
	"github.com/marketmaster/marketmaster-backend/internal/content"
	"github.com/marketmaster/marketmaster-backend/internal/orders"
	"github.com/marketmaster/marketmaster-backend/internal/products"
	"github.com/marketmaster/marketmaster-backend/internal/users"
	"github.com/marketmaster/marketmaster-backend/pkg/auth/session"
	"github.com/marketmaster/marketmaster-backend/pkg/config"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
	"github.com/marketmaster/marketmaster-backend/pkg/metrics"
)

// Deps bundles everything the HTTP surface needs. The router stays a pure
// wiring function so tests can stand one up with stubs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	CachePinger    controllers.Pinger
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	AuthService       auth.Service
	UsersService      users.Service
	ProductsService   products.Service
	CategoriesService categories.Service
	CartService       *cart.Service
	OrdersService     orders.Service
	ContentService    content.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.CachePinger))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, d.SessionChecker, logg)).
			Post("/logout", controllers.AuthLogout(d.AuthService, logg))
	})

	// Storefront reads need no session.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(d.ProductsService, logg))
		r.Get("/products/featured", controllers.ProductFeatured(d.ProductsService, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.ProductsService, logg))
		r.Get("/categories", controllers.CategoryList(d.CategoriesService, logg))
		r.Get("/categories/{categoryId}", controllers.CategoryDetail(d.CategoriesService, logg))
		r.Get("/content/homepage", controllers.ContentHomepage(d.ContentService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.Me(d.UsersService, logg))
				r.Put("/", controllers.MeUpdate(d.UsersService, logg))
				r.Put("/password", controllers.MePassword(d.UsersService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.CartService, logg))
				r.Post("/items", controllers.CartAddItem(d.CartService, d.ProductsService, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateQuantity(d.CartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.CartService, logg))
				r.Delete("/", controllers.CartClear(d.CartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(d.OrdersService, d.CartService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.OrdersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.OrdersService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(d.ProductsService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(d.ProductsService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.ProductsService, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(d.CategoriesService, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(d.CategoriesService, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.CategoriesService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(d.OrdersService, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(d.OrdersService, logg))
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(d.UsersService, logg))
			r.Patch("/{userId}/role", controllers.AdminUserSetRole(d.UsersService, logg))
			r.Patch("/{userId}/active", controllers.AdminUserSetActive(d.UsersService, logg))
		})
		r.Put("/content/homepage", controllers.AdminContentUpdate(d.ContentService, logg))
	})

	return r
}
