package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogEntry is one consumed roster event.
type LogEntry struct {
	EventID       string
	EventType     string
	Activity      string
	Email         string
	RosterSize    int
	Capacity      int
	OccurredAt    time.Time
	SchemaID      int
	SchemaSubject string
	Topic         string
	Partition     int
	Offset        int64
	Payload       json.RawMessage
}

// EventLog is the append-only roster audit trail.
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog constructs an EventLog.
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Append stores entry. Redelivered events are ignored by event id, so
// Append is safe under at-least-once delivery.
func (l *EventLog) Append(ctx context.Context, entry LogEntry) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO roster_event_log (event_id, event_type, activity, email, roster_size, capacity, occurred_at, schema_id, schema_subject, topic, partition, record_offset, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
         ON CONFLICT (event_id) DO NOTHING`,
		entry.EventID,
		entry.EventType,
		entry.Activity,
		entry.Email,
		entry.RosterSize,
		entry.Capacity,
		entry.OccurredAt,
		entry.SchemaID,
		entry.SchemaSubject,
		entry.Topic,
		entry.Partition,
		entry.Offset,
		[]byte(entry.Payload),
	)
	return err
}

// Recent returns the newest entries for an activity, newest first.
func (l *EventLog) Recent(ctx context.Context, activity string, limit int) ([]LogEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT event_id, event_type, activity, email, roster_size, capacity, occurred_at, schema_id, schema_subject, topic, partition, record_offset, payload
           FROM roster_event_log
          WHERE activity = $1
          ORDER BY occurred_at DESC, log_id DESC
          LIMIT $2`,
		activity, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LogEntry, error) {
		var e LogEntry
		var payload []byte
		err := row.Scan(&e.EventID, &e.EventType, &e.Activity, &e.Email, &e.RosterSize, &e.Capacity, &e.OccurredAt, &e.SchemaID, &e.SchemaSubject, &e.Topic, &e.Partition, &e.Offset, &payload)
		e.Payload = payload
		return e, err
	})
}
