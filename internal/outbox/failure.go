package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DLQWriter persists failed events so the DLQ manager can replay them.
type DLQWriter struct {
	pool *pgxpool.Pool
}

// NewDLQWriter initialises a writer backed by the provided connection pool.
func NewDLQWriter(pool *pgxpool.Pool) *DLQWriter {
	return &DLQWriter{pool: pool}
}

// Write records a failed message in outbox_dlq alongside the supplied reason.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, activity, topic, schema_subject, partition_key, payload, reason, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NOW())`,
		msg.EventID, msg.EventType, msg.Activity, msg.Topic, msg.SchemaSubject, msg.PartitionKey, []byte(msg.Payload), reason,
	)
	return err
}

// LogSink records failed messages in the log only. It is used when no
// database is configured, so failed events are lost after logging.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Write logs the failed message.
func (s *LogSink) Write(_ context.Context, msg Message, reason string) error {
	s.logger.Error("roster event dropped",
		zap.String("event_id", msg.EventID),
		zap.String("event_type", msg.EventType),
		zap.String("activity", msg.Activity),
		zap.String("reason", reason),
	)
	return nil
}
