package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dlqProcessedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "dlq",
		Name:      "messages_replayed_total",
		Help:      "Roster events replayed from the DLQ to Kafka, by activity.",
	}, []string{"topic", "event_type", "activity"})

	dlqQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "Roster events quarantined after exhausting retries, by activity.",
	}, []string{"topic", "event_type", "activity"})

	dlqRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "Roster event replays rescheduled with backoff, by activity.",
	}, []string{"topic", "event_type", "activity"})

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clubs",
		Subsystem: "dlq",
		Name:      "queued_messages",
		Help:      "Roster events waiting in the DLQ, excluding quarantined rows.",
	})
)

func init() {
	prometheus.MustRegister(dlqProcessedCounter, dlqQuarantinedCounter, dlqRetryCounter, dlqBacklogGauge)
}

func (e dlqEntry) labels() []string {
	activity := e.Activity
	if activity == "" {
		activity = "_unknown"
	}
	return []string{e.Topic, e.EventType, activity}
}

func recordDLQProcessed(entry dlqEntry) {
	dlqProcessedCounter.WithLabelValues(entry.labels()...).Inc()
}

func recordDLQQuarantined(entry dlqEntry) {
	dlqQuarantinedCounter.WithLabelValues(entry.labels()...).Inc()
}

func recordDLQRetry(entry dlqEntry) {
	dlqRetryCounter.WithLabelValues(entry.labels()...).Inc()
}

func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&count); err != nil {
		return
	}
	dlqBacklogGauge.Set(float64(count))
}
