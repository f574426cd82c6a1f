// Package metrics содержит счётчики Prometheus сервиса.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortify"

// Исходы разрешения короткой ссылки
const (
	OutcomeRedirect  = "redirect"
	OutcomeSuspended = "suspended"
	OutcomeNotFound  = "not_found"
)

var (
	// HTTPRequestsTotal число HTTP-запросов по методу, маршруту и статусу
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration длительность HTTP-запросов
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// GRPCRequestsTotal число gRPC-вызовов по методу и коду
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls processed",
		},
		[]string{"method", "code"},
	)

	// LinksCreated число созданных ссылок; kind = auto или custom
	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Total number of allocated short links",
		},
		[]string{"kind"},
	)

	// AllocationRetries число повторов генерации после проигранной гонки за short
	AllocationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_retries_total",
			Help:      "Generated short ids retried after a duplicate key",
		},
	)

	// Resolutions число разрешений ссылок по исходу
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Short link resolutions partitioned by outcome",
		},
		[]string{"outcome"},
	)

	// ExpiredSuspensions число ссылок, приостановленных по истечении срока
	ExpiredSuspensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_suspensions_total",
			Help:      "Links suspended by the resolver because their expiration date passed",
		},
	)
)

// Handler возвращает обработчик /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
