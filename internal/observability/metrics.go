package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncPassCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "orchestrator",
		Name:      "passes_total",
		Help:      "Number of sync passes grouped by result.",
	}, []string{"result"})

	passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitbit_sync",
		Subsystem: "orchestrator",
		Name:      "pass_duration_seconds",
		Help:      "Time spent running one complete sync pass.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	itemsPublishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "orchestrator",
		Name:      "items_published_total",
		Help:      "Number of domain items published per resource category.",
	}, []string{"category"})

	tokenRefreshCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "orchestrator",
		Name:      "token_refreshes_total",
		Help:      "Number of token refresh attempts grouped by result.",
	}, []string{"result"})

	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitbit_sync",
		Subsystem: "orchestrator",
		Name:      "last_pass_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync pass.",
	})
)

func init() {
	prometheus.MustRegister(syncPassCounter, passDuration, itemsPublishedCounter, tokenRefreshCounter, lastSyncGauge)
}

// RecordSyncPass tallies a completed pass and its duration.
func RecordSyncPass(result string, elapsed time.Duration) {
	syncPassCounter.WithLabelValues(result).Inc()
	passDuration.Observe(elapsed.Seconds())
}

// RecordItemsPublished tallies published items for one category.
func RecordItemsPublished(category string, count int) {
	if count <= 0 {
		return
	}
	itemsPublishedCounter.WithLabelValues(category).Add(float64(count))
}

// RecordTokenRefresh tallies one refresh attempt.
func RecordTokenRefresh(result string) {
	tokenRefreshCounter.WithLabelValues(result).Inc()
}

// RecordLastSync updates the success watermark gauge.
func RecordLastSync(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastSyncGauge.Set(float64(ts.Unix()))
}
