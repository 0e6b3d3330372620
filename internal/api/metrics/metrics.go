// Package metrics defines the Prometheus metrics of the admin console: calls
// made to the content backend, session transitions and content mutations.
//
// All metrics are registered with the default registry on package init.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

const namespace = "admin_console"

// ── Backend metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts requests sent to the content backend.
// Labels:
//   - resource: first path segment (e.g. "articles", "auth")
//   - method: HTTP method
//   - status: response code, or "network" when no response arrived
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to the content backend.",
	},
	[]string{"resource", "method", "status"},
)

// UpstreamRequestDuration measures backend round trips.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests sent to the content backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"resource", "method"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Labels:
//   - status: the state entered
//   - reason: demotion reason when the session fell back to anonymous
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"status", "reason"},
)

// ── Content metrics ──────────────────────────────────────────────────────────

// ResourceMutationsTotal counts create, update and delete requests.
// Label:
//   - outcome: "ok", "invalid", "busy", "declined" or "error"
var ResourceMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_mutations_total",
		Help:      "Total number of content mutations, by resource, action and outcome.",
	},
	[]string{"resource", "action", "outcome"},
)

// Upstream feeds the backend metrics. It satisfies backend.Observer.
type Upstream struct{}

func (Upstream) ObserveUpstream(resource, method string, status int, elapsed time.Duration) {
	code := "network"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(resource, method, code).Inc()
	UpstreamRequestDuration.WithLabelValues(resource, method).Observe(elapsed.Seconds())
}

// ObserveSession records a session transition. Pass it to Subscribe.
func ObserveSession(s domain.Session) {
	SessionTransitionsTotal.WithLabelValues(string(s.Status), string(s.Demoted)).Inc()
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
