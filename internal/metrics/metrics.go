package metrics

import (
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "controlplane"

// Metrics holds the control plane collectors. It satisfies
// authz.DecisionObserver and authz.LookupObserver.
type Metrics struct {
	Decisions       *prometheus.CounterVec
	LookupDuration  *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	CacheOperations *prometheus.CounterVec
}

var (
	_ authz.DecisionObserver = (*Metrics)(nil)
	_ authz.LookupObserver   = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Authorization decisions by outcome and denial code.",
		}, []string{"outcome", "code"}),
		LookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tenant_access_lookup_seconds",
			Help:      "Latency of tenant access lookups against the membership store.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Hostname resolution cache lookups by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.Decisions, m.LookupDuration, m.HTTPRequests, m.HTTPDuration, m.CacheOperations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDecision counts one authorization decision.
func (m *Metrics) ObserveDecision(allowed bool, code authz.Code) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.Decisions.WithLabelValues(outcome, string(code)).Inc()
}

// ObserveTenantLookup records the latency of one tenant access lookup.
func (m *Metrics) ObserveTenantLookup(result string, elapsed time.Duration) {
	m.LookupDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCache counts a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheOperations.WithLabelValues("hit").Inc()
		return
	}
	m.CacheOperations.WithLabelValues("miss").Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5XX"
	case code >= 400:
		return "4XX"
	case code >= 300:
		return "3XX"
	case code >= 200:
		return "2XX"
	default:
		return "1XX"
	}
}
