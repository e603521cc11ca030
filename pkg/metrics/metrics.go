package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of domain events handed to the broker (count)",
		},
		[]string{"topic", "status"},
	)

	EventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of envelopes processed by a consumer (count)",
		},
		[]string{"service", "event", "status"},
	)

	UnknownEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unknown_events_total",
			Help: "Total number of envelopes skipped because the event name is not recognised (count)",
		},
		[]string{"service"},
	)

	HandlerProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handler_processing_duration_ms",
			Help:    "Per-event handler latency in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "event"},
	)

	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Total number of search queries served (count)",
		},
		[]string{"status"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_total",
			Help: "Search result cache lookups (count)",
		},
		[]string{"result"},
	)

	IndexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexed_documents",
			Help: "Number of documents currently held by the search index (count)",
		},
	)

	AnalyticsCounters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_counters",
			Help: "Number of distinct counters held by the analytics store (count)",
		},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func RegisterPublisherMetrics() {
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(CircuitBreakerState)
}

func RegisterConsumerMetrics() {
	prometheus.MustRegister(EventsConsumedTotal)
	prometheus.MustRegister(UnknownEventsTotal)
	prometheus.MustRegister(HandlerProcessingDuration)
}

func RegisterSearchMetrics() {
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(IndexedDocuments)
}

func RegisterAnalyticsMetrics() {
	prometheus.MustRegister(AnalyticsCounters)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}
