package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// unknownActivity labels records that arrive without an activity header.
const unknownActivity = "_unknown"

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "consumer",
		Name:      "roster_events_processed_total",
		Help:      "Roster events written to the audit log, by activity and event type.",
	}, []string{"topic", "event_type", "activity"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "consumer",
		Name:      "roster_event_handler_errors_total",
		Help:      "Roster events the audit handler failed to store, left uncommitted for redelivery.",
	}, []string{"topic", "event_type", "activity"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Records skipped because the wire frame or headers were malformed.",
	}, []string{"topic"})

	lastEventGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clubs",
		Subsystem: "consumer",
		Name:      "last_roster_event_timestamp_seconds",
		Help:      "Unix time of the latest roster event audited for each activity.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(processedCounter, handlerErrorCounter, decodeErrorCounter, lastEventGauge)
}

func activityLabel(msg Message) string {
	if msg.Activity == "" {
		return unknownActivity
	}
	return msg.Activity
}

func recordProcessed(msg Message) {
	activity := activityLabel(msg)
	processedCounter.WithLabelValues(msg.Topic, msg.EventType, activity).Inc()
	if !msg.Timestamp.IsZero() {
		lastEventGauge.WithLabelValues(activity).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType, activityLabel(msg)).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
