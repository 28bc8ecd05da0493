// Package metrics exposes Prometheus collectors for refreshes, list
// aggregation and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rssync",
			Name:      "refresh_total",
			Help:      "Total number of source refreshes",
		},
		[]string{"status"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rssync",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of source refreshes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	ItemsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rssync",
			Name:      "items_inserted_total",
			Help:      "Total number of feed items stored",
		},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rssync",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of list aggregation in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ListRequests counts rendered list documents by cache outcome.
	ListRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rssync",
			Name:      "list_requests_total",
			Help:      "Total number of list feed requests",
		},
		[]string{"format", "cache"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rssync",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)
)

// RecordRefresh records one source refresh.
func RecordRefresh(status string, duration float64, newItems int) {
	RefreshTotal.WithLabelValues(status).Inc()
	RefreshDuration.Observe(duration)
	if newItems > 0 {
		ItemsInserted.Add(float64(newItems))
	}
}

func RecordAggregation(duration float64) {
	AggregationDuration.Observe(duration)
}

func RecordListRequest(format, cache string) {
	ListRequests.WithLabelValues(format, cache).Inc()
}

func RecordHTTPRequest(method, route, code string) {
	HTTPRequests.WithLabelValues(method, route, code).Inc()
}
