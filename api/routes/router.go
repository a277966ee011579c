package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	storagePinger controllers.Pinger,
	catalogClient *catalog.Client,
	pager *catalog.Pager,
	finder *catalog.Finder,
	cartStore *cart.Store,
	session *auth.Session,
	authService *auth.Service,
	checkoutService *checkout.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, storagePinger, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(catalogClient, logg))
			r.Post("/more", controllers.ProductsMore(pager, logg))
			r.Delete("/more", controllers.ProductsMoreReset(pager, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartStore, logg))
			r.Delete("/", controllers.CartClear(cartStore, logg))
			r.Post("/items", controllers.CartAddItem(cartStore, finder, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartStore, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartStore, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionFetch(session, logg))
			r.Post("/", controllers.SessionLogin(authService, logg))
			r.Delete("/", controllers.SessionLogout(authService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/summary", controllers.CheckoutSummary(checkoutService, logg))
			r.Post("/", controllers.Checkout(checkoutService, logg))
		})

		r.Get("/events", controllers.Events(cartStore, session, logg))
	})

	return r
}
