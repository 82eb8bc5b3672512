package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_api_requests_total",
			Help: "Outbound API requests by method and status class",
		},
		[]string{"method", "class"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_api_request_duration_seconds",
			Help:    "Latency of outbound API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_api_token_refresh_total",
			Help: "Credential refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	authExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_api_auth_expired_total",
			Help: "Sessions dropped because the credential could not be refreshed",
		},
	)
)

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
