package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joelkehle/vehicle-advisor/internal/upstream"
)

// Metrics bundles the advisor's Prometheus collectors. All methods are safe
// on a nil receiver.
type Metrics struct {
	Registry         *prometheus.Registry
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Fallbacks        *prometheus.CounterVec
	StrategyOutcomes *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

// New registers every collector on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		},
		[]string{"route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_http_request_duration_seconds",
			Help:    "HTTP handler latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	upstreamRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_upstream_requests_total",
			Help: "Calls to external services, by outcome.",
		},
		[]string{"service", "op", "outcome"},
	)
	upstreamDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_upstream_request_duration_seconds",
			Help:    "External service call latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "op"},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_fallbacks_total",
			Help: "Results served from fallback data instead of live data.",
		},
		[]string{"component"},
	)
	strategies := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_strategy_outcomes_total",
			Help: "Negotiation strategy generation outcomes.",
		},
		[]string{"outcome"},
	)
	cache := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_cache_lookups_total",
			Help: "Cache lookups, by cache and result.",
		},
		[]string{"cache", "result"},
	)

	registry.MustRegister(httpRequests, httpDuration, upstreamRequests, upstreamDuration, fallbacks, strategies, cache)

	return &Metrics{
		Registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		UpstreamRequests: upstreamRequests,
		UpstreamDuration: upstreamDuration,
		Fallbacks:        fallbacks,
		StrategyOutcomes: strategies,
		CacheLookups:     cache,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveUpstream(service, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(service, op, upstream.Label(err)).Inc()
	m.UpstreamDuration.WithLabelValues(service, op).Observe(d.Seconds())
}

func (m *Metrics) IncFallback(component string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(component).Inc()
}

func (m *Metrics) IncStrategyOutcome(outcome string) {
	if m == nil {
		return
	}
	m.StrategyOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
