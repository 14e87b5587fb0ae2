package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/permanentprinting/storefront-backend/api/controllers"
	authcontrollers "github.com/permanentprinting/storefront-backend/api/controllers/auth"
	cartcontrollers "github.com/permanentprinting/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/permanentprinting/storefront-backend/api/controllers/orders"
	"github.com/permanentprinting/storefront-backend/api/middleware"
	"github.com/permanentprinting/storefront-backend/internal/auth"
	"github.com/permanentprinting/storefront-backend/internal/bulkorders"
	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/internal/catalog"
	"github.com/permanentprinting/storefront-backend/internal/orders"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	"github.com/permanentprinting/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	catalogSource catalog.Source,
	cartService cart.Service,
	ordersService orders.Service,
	bulkOrdersService bulkorders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	idempotent := middleware.Idempotency(redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.Dependency{Name: "db", Pinger: dbP},
			controllers.Dependency{Name: "redis", Pinger: redisClient},
		))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", authcontrollers.AuthLogin(authService, cartService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", authcontrollers.AuthRegister(authService, cartService, logg))
			r.Post("/refresh", authcontrollers.AuthRefresh(authService, logg))
			r.Get("/verify", authcontrollers.AuthVerify(authService, logg))
			r.With(middleware.Auth(authService, logg)).Post("/logout", authcontrollers.AuthLogout(authService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalogSource, logg))
			r.Get("/categories", controllers.ProductCategories(catalogSource, logg))
			r.Get("/{productId}", controllers.ProductGet(catalogSource, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authService, logg))
			r.Use(middleware.CartSession(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartView(cartService, logg))
				r.Delete("/", cartcontrollers.CartClear(cartService, logg))
				r.Get("/totals", cartcontrollers.CartTotals(cartService, logg))
				r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
				r.Patch("/items/{productId}", cartcontrollers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(cartService, logg))
				r.Post("/promotion", cartcontrollers.CartApplyPromotion(cartService, logg))
				r.Delete("/promotion", cartcontrollers.CartRemovePromotion(cartService, logg))
			})

			r.With(idempotent).Post("/bulk-orders", controllers.BulkOrderSubmit(bulkOrdersService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService, logg))
			r.Use(middleware.CartSession(logg))

			r.With(idempotent).Post("/checkout", ordercontrollers.Checkout(ordersService, logg))
			r.Get("/orders", ordercontrollers.OrderList(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.OrderGet(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(authService, logg))
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Get("/bulk-orders", controllers.AdminBulkOrderList(bulkOrdersService, logg))
			r.Get("/bulk-orders/{id}", controllers.AdminBulkOrderGet(bulkOrdersService, logg))
		})
	})

	return r
}
