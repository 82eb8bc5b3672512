package callback

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lashkaryadi/get-me-a-tutor/pkg/health"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/middleware"
)

const component = "callback"

// NewRouter creates a chi router with the callback, health and metrics routes.
func NewRouter(payments *PaymentHandler, healthHandler *health.Handler, allowedOrigins []string, userID middleware.UserIDFunc, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(component))
	r.Use(middleware.RequestLogger(logger, userID))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(component))
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Post("/payments/callback", payments.Callback)
		r.Get("/credits", payments.Credits)
	})

	return r
}
