package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boletera/admin-gateway/api/controllers"
	"github.com/boletera/admin-gateway/api/middleware"
	"github.com/boletera/admin-gateway/pkg/config"
	"github.com/boletera/admin-gateway/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	pricingService controllers.PricingService,
	resolver controllers.ConfirmationResolver,
	supportStore controllers.SupportStore,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/price-calculator", func(r chi.Router) {
			r.Post("/final-price", controllers.PricingFinalPrice(pricingService, logg))
			r.Post("/organizer-amount", controllers.PricingOrganizerAmount(pricingService, logg))
			r.Get("/constants", controllers.PricingConstants(pricingService, logg))
		})
		r.Get("/ticket-purchases/confirmation", controllers.TicketPurchaseConfirmation(resolver, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/confirmations/unresolved", func(r chi.Router) {
			r.Get("/", controllers.SupportUnresolvedList(supportStore, logg))
			r.Post("/{confirmationId}/resolve", controllers.SupportUnresolvedClose(supportStore, logg))
		})
	})

	return r
}
