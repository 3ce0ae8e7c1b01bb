package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "safari"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SourceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "source_requests_total", Help: "Reference-data fetches."},
		[]string{"source", "status"},
	)
	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "source_request_duration_seconds",
			Help:    "Reference-data fetch duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	Quotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_total", Help: "Pricing calls by kind and outcome."},
		[]string{"kind", "outcome"}, // outcome: ok|not_found|error|fallback
	)
	CatalogEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "catalog_entries", Help: "Entries in the active reference snapshot."},
		[]string{"collection"},
	)
	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "catalog_reloads_total", Help: "Reference snapshot reloads."},
		[]string{"outcome"},
	)
)

// Serve starts a standalone metrics listener on addr; empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, SourceRequests, SourceLatency,
		CacheEvents, Quotes, CatalogEntries, CatalogReloads)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSource(source string, status int, dur time.Duration) {
	SourceRequests.WithLabelValues(source, strconv.Itoa(status)).Inc()
	SourceLatency.WithLabelValues(source).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveQuote(kind, outcome string) {
	Quotes.WithLabelValues(kind, outcome).Inc()
}

func ObserveCatalog(tariffs, rules, fees int) {
	CatalogReloads.WithLabelValues("ok").Inc()
	CatalogEntries.WithLabelValues("tariffs").Set(float64(tariffs))
	CatalogEntries.WithLabelValues("fee_rules").Set(float64(rules))
	CatalogEntries.WithLabelValues("service_fees").Set(float64(fees))
}

func ObserveCatalogFailure() {
	CatalogReloads.WithLabelValues("error").Inc()
}
