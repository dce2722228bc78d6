package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "carpool", Name: "rides_created_total", Help: "Total ride postings created"})

	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "carpool", Name: "searches_total", Help: "Total ride searches served"})
	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpool", Name: "search_latency_seconds", Help: "Ride search latency"})
	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpool", Name: "search_results", Help: "Matches returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50}})

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "bookings_total", Help: "Booking transitions by mode and result"},
		[]string{"mode", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
