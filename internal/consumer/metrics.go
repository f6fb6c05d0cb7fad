package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "consumer",
		Name:      "requests_processed_total",
		Help:      "Number of sync requests successfully handled.",
	}, []string{"topic"})

	syncErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "consumer",
		Name:      "sync_errors_total",
		Help:      "Number of sync request failures grouped by topic.",
	}, []string{"topic"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Number of decode failures per topic.",
	}, []string{"topic"})

	lastRequestGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitbit_sync",
		Subsystem: "consumer",
		Name:      "last_request_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed request per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(processedCounter, syncErrorCounter, decodeErrorCounter, lastRequestGauge)
}

func recordProcessed(topic string, ts time.Time) {
	processedCounter.WithLabelValues(topic).Inc()
	if !ts.IsZero() {
		lastRequestGauge.WithLabelValues(topic).Set(float64(ts.Unix()))
	}
}

func recordSyncError(topic string) {
	syncErrorCounter.WithLabelValues(topic).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
