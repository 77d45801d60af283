// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PostsProcessed *prometheus.CounterVec
	ParseFailures  *prometheus.CounterVec
	TokensInserted prometheus.Counter
	EventsRecorded *prometheus.CounterVec
	CycleErrors    prometheus.Counter
	CycleDuration  prometheus.Histogram

	// Delivery metrics
	NotificationsSent  *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	SubscribersRemoved prometheus.Counter
	SubscribersActive  prometheus.Gauge

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gemwatch"
	}

	return &Metrics{
		PostsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "posts_processed_total",
			Help:      "Total number of posts processed by feed",
		}, []string{"feed"}),
		ParseFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "parse_failures_total",
			Help:      "Total number of posts that yielded no token update, by feed",
		}, []string{"feed"}),
		TokensInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "tokens_inserted_total",
			Help:      "Total number of newly discovered tokens",
		}),
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_recorded_total",
			Help:      "Total number of market update events recorded, by change type",
		}, []string{"change_type"}),
		CycleErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "cycle_errors_total",
			Help:      "Total number of ingestion cycles that hit a cycle-level error",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "cycle_duration_seconds",
			Help:      "Ingestion cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications delivered, by kind",
		}, []string{"kind"}),
		DeliveryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "failures_total",
			Help:      "Total number of delivery failures, by class",
		}, []string{"class"}),
		SubscribersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "subscribers_removed_total",
			Help:      "Total number of subscribers removed after permanent delivery failure",
		}),
		SubscribersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "subscribers_active",
			Help:      "Current number of registered subscribers",
		}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last ingestion cycle that finished without a cycle-level error",
		}),
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPostProcessed increments the posts processed counter for a feed.
func RecordPostProcessed(feed string) {
	DefaultMetrics.PostsProcessed.WithLabelValues(feed).Inc()
}

// RecordParseFailure increments the parse failures counter for a feed.
func RecordParseFailure(feed string) {
	DefaultMetrics.ParseFailures.WithLabelValues(feed).Inc()
}

// RecordTokenInserted increments the new tokens counter.
func RecordTokenInserted() {
	DefaultMetrics.TokensInserted.Inc()
}

// RecordEvent increments the recorded events counter for a change type.
func RecordEvent(changeType string) {
	DefaultMetrics.EventsRecorded.WithLabelValues(changeType).Inc()
}

// RecordCycle records one finished ingestion cycle.
func RecordCycle(seconds float64, err error) {
	DefaultMetrics.CycleDuration.Observe(seconds)
	if err != nil {
		DefaultMetrics.CycleErrors.Inc()
	}
}

// RecordNotificationSent increments the notifications sent counter by kind.
func RecordNotificationSent(kind string) {
	DefaultMetrics.NotificationsSent.WithLabelValues(kind).Inc()
}

// RecordDeliveryFailure increments the delivery failures counter by class.
func RecordDeliveryFailure(class string) {
	DefaultMetrics.DeliveryFailures.WithLabelValues(class).Inc()
}

// RecordSubscriberRemoved increments the removed subscribers counter.
func RecordSubscriberRemoved() {
	DefaultMetrics.SubscribersRemoved.Inc()
}

// UpdateActiveSubscribers updates the active subscribers gauge.
func UpdateActiveSubscribers(n int) {
	DefaultMetrics.SubscribersActive.Set(float64(n))
}

// MarkCycleSuccess updates the last successful cycle timestamp.
func MarkCycleSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulCycle.Set(float64(unixSeconds))
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
