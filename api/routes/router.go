package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gocart/storefront/api/controllers"
	"github.com/gocart/storefront/api/middleware"
	"github.com/gocart/storefront/internal/analytics"
	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/internal/catalog"
	checkoutsvc "github.com/gocart/storefront/internal/checkout"
	"github.com/gocart/storefront/internal/orders"
	"github.com/gocart/storefront/internal/pricing"
	pkgAuth "github.com/gocart/storefront/pkg/auth"
	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/geocode"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/metrics"
	pkgredis "github.com/gocart/storefront/pkg/redis"
)

// Services are the domain services behind the storefront API.
type Services struct {
	Carts     *cart.Sessions
	Catalog   *catalog.Service
	Pricing   *pricing.Engine
	Profiles  cart.ProfileStorage
	Geocoder  *geocode.Client
	Checkout  checkoutsvc.Service
	Orders    *orders.Service
	Analytics analytics.Service
}

// Infra carries the cross-cutting dependencies of the router. Idempotency and
// Gatherer may be nil.
type Infra struct {
	Metrics     *metrics.Storefront
	Gatherer    prometheus.Gatherer
	Idempotency pkgredis.IdempotencyStore
	Health      map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Health))
	})
	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(infra.Idempotency, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(pkgAuth.RoleConsumer, logg))

			r.Get("/vendors/{vendorId}/products", controllers.CatalogList(svcs.Catalog, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Carts, svcs.Pricing, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Carts, svcs.Catalog, svcs.Pricing, logg))
				r.Post("/items/{productId}/increment", controllers.CartIncrementItem(svcs.Carts, svcs.Pricing, logg))
				r.Post("/items/{productId}/decrement", controllers.CartDecrementItem(svcs.Carts, svcs.Pricing, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(svcs.Carts, svcs.Pricing, logg))
			})

			r.Get("/profile", controllers.ProfileFetch(svcs.Profiles, logg))
			r.Put("/profile", controllers.ProfileUpdate(svcs.Profiles, logg))
			if svcs.Geocoder != nil {
				r.Get("/address/reverse", controllers.AddressReverse(svcs.Geocoder, logg))
			}

			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
			r.Get("/orders", controllers.ConsumerOrders(svcs.Orders, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(pkgAuth.RoleVendor, logg))
			r.Get("/orders", controllers.VendorOrders(svcs.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.VendorOrderTransition(svcs.Orders, logg))
			r.Get("/metrics", controllers.VendorMetrics(svcs.Analytics, logg))

			r.Get("/products", controllers.VendorProducts(svcs.Catalog, logg))
			r.Post("/products", controllers.VendorProductCreate(svcs.Catalog, logg))
			r.Delete("/products/{productId}", controllers.VendorProductDelete(svcs.Catalog, logg))
		})
	})

	return r
}
