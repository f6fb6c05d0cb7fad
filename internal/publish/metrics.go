package publish

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "publish",
		Name:      "events_published_total",
		Help:      "Number of events successfully written to Kafka, labeled by topic and event type.",
	}, []string{"topic", "event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbit_sync",
		Subsystem: "publish",
		Name:      "events_failed_total",
		Help:      "Number of events that failed to publish, labeled by topic and event type.",
	}, []string{"topic", "event_type"})
)

func init() {
	prometheus.MustRegister(publishedCounter, failedCounter)
}
