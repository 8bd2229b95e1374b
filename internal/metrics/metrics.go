// Package metrics exposes Prometheus collectors for the enrichment service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formulant",
			Subsystem: "lookup",
			Name:      "attempts_total",
			Help:      "Compound lookup attempts by outcome (hit, miss, cached).",
		},
		[]string{"outcome"},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formulant",
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Property cache events (cached, computed, shared).",
		},
		[]string{"source"},
	)

	outbound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formulant",
			Subsystem: "pubchem",
			Name:      "requests_total",
			Help:      "Outbound PubChem calls by operation (resolve, fetch).",
		},
		[]string{"op"},
	)

	anomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formulant",
			Subsystem: "enrich",
			Name:      "anomalies_total",
			Help:      "Anomaly records by pipeline stage and kind.",
		},
		[]string{"stage", "kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formulant",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "formulant",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		lookups,
		cacheEvents,
		outbound,
		anomalies,
		httpRequests,
		httpDuration,
	)
}

// Handler serves the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveLookup counts one usage-tracker outcome.
func ObserveLookup(outcome string) {
	lookups.WithLabelValues(outcome).Inc()
}

// ObserveCache counts one property-cache result source.
func ObserveCache(source string) {
	cacheEvents.WithLabelValues(source).Inc()
}

// ObserveOutbound counts one call to PubChem.
func ObserveOutbound(op string) {
	outbound.WithLabelValues(op).Inc()
}

// ObserveAnomaly counts one anomaly record.
func ObserveAnomaly(stage, kind string) {
	anomalies.WithLabelValues(stage, kind).Inc()
}

// Middleware instruments HTTP handlers with request count and duration,
// labeled by the chi route pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
