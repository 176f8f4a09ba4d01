package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_http_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_http_request_duration_seconds",
		Help:    "Duration of console HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	backendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_backend_calls_total",
		Help: "Calls made to the ordering backend by operation and outcome",
	}, []string{"operation", "outcome"})

	backendCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_backend_call_duration_seconds",
		Help:    "Duration of calls made to the ordering backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	bootstraps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_session_bootstraps_total",
		Help: "Session bootstrap runs by outcome",
	}, []string{"outcome"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	optimisticUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_tentative_updates_total",
		Help: "Tentative list updates by final state",
	}, []string{"state"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderdesk_active_sessions",
		Help: "Number of console sessions held in memory",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBackendCall records one backend round trip. outcome is "ok",
// "status" (non-success response) or "transport".
func ObserveBackendCall(operation, outcome string, duration time.Duration) {
	backendCalls.WithLabelValues(operation, outcome).Inc()
	backendCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveBootstrap counts a bootstrap run.
func ObserveBootstrap(outcome string) {
	bootstraps.WithLabelValues(outcome).Inc()
}

// ObserveLogin counts a login attempt.
func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// ObserveTentativeUpdate counts a two-phase list update by the state it settled in.
func ObserveTentativeUpdate(state string) {
	optimisticUpdates.WithLabelValues(state).Inc()
}

// SetActiveSessions sets the in-memory console session gauge.
func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}
