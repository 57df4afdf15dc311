package prometheus

import (
	"time"

	"sdr-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Lead metrics
	LeadOperationsCounter prometheus.CounterVec

	// Stage machine metrics
	StageTransitionsCounter prometheus.CounterVec

	// Qualification metrics
	QualificationScores prometheus.Histogram

	// Grok API metrics
	GrokRequestDuration prometheus.HistogramVec
	GrokErrorsCounter   prometheus.CounterVec

	// Search metrics
	SearchQueriesCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Lead metrics
	LeadOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_lead_operations_total",
			Help: "Total number of lead operations",
		},
		[]string{"operation"},
	)

	// Stage machine metrics
	StageTransitionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stage_transitions_total",
			Help: "Total number of lead stage transitions",
		},
		[]string{"from", "to", "trigger"},
	)

	// Qualification metrics
	QualificationScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_qualification_scores",
			Help:    "Distribution of qualification scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Grok API metrics
	GrokRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_grok_request_duration_seconds",
			Help:    "Duration of grok API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	GrokErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_grok_errors_total",
			Help: "Total number of failed grok API calls",
		},
		[]string{"operation", "kind"},
	)

	// Search metrics
	SearchQueriesCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"search_type"},
	)
}

// RecordLeadOperation increments the counter for lead operations
func RecordLeadOperation(operation string) {
	LeadOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordStageTransition increments the counter for stage transitions
func RecordStageTransition(from, to, trigger string) {
	StageTransitionsCounter.WithLabelValues(from, to, trigger).Inc()
}

// RecordQualificationScore observes a qualification score
func RecordQualificationScore(score float64) {
	QualificationScores.Observe(score)
}

// TrackGrokRequest returns a function that records the duration of a grok API call
func TrackGrokRequest(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		GrokRequestDuration.WithLabelValues(operation).Observe(duration)
	}
}

// RecordGrokError increments the counter for failed grok API calls
func RecordGrokError(operation, kind string) {
	GrokErrorsCounter.WithLabelValues(operation, kind).Inc()
}

// RecordSearchQuery increments the counter for search queries
func RecordSearchQuery(searchType string) {
	SearchQueriesCounter.WithLabelValues(searchType).Inc()
}
