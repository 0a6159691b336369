package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Number of roster events successfully published to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Number of roster events that failed to publish and were routed to the failure sink.",
	})

	droppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "events_dropped_total",
		Help:      "Number of roster events rejected because the queue was full.",
	}, []string{"event_type"})

	queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "queue_depth",
		Help:      "Roster events buffered in memory awaiting delivery.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent encoding and delivering outbox batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Number of roster events routed to the dead-letter queue, labeled by topic.",
	}, []string{"topic"})

	kafkaWritesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "outbox",
		Name:      "kafka_writes_total",
		Help:      "Roster records acknowledged or rejected by Kafka, by activity.",
	}, []string{"topic", "activity", "result"})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, droppedCounter, queueDepthGauge, batchDuration, dlqCounter, kafkaWritesCounter)
}
