package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQManager replays failed roster events to Kafka and quarantines entries
// that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	producer   messageWriter
	encoder    *recordEncoder
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager with the provided pool and retry configuration.
func NewDLQManager(pool *pgxpool.Pool, producer messageWriter, registry schemaRegistrar, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQManager{
		pool:       pool,
		producer:   producer,
		encoder:    newRecordEncoder(registry),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// RunOnce processes a batch of due DLQ entries and returns the count of
// entries successfully replayed.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	const query = `SELECT dlq_id, event_id, event_type, activity, topic, schema_subject, partition_key, payload, reason, retry_count
                    FROM outbox_dlq
                   WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
                   ORDER BY created_at
                   LIMIT $1`

	rows, err := m.pool.Query(ctx, query, batchSize)
	if err != nil {
		return 0, err
	}
	entries, err := pgx.CollectRows(rows, scanDLQEntry)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, entry := range entries {
		replayed, procErr := m.handleEntry(ctx, entry)
		if procErr != nil {
			err = errors.Join(err, procErr)
			continue
		}
		if replayed {
			processed++
		}
	}
	updateBacklogGauge(ctx, m.pool)
	return processed, err
}

// handleEntry applies retry/quarantine logic for a single DLQ entry. It
// reports whether the entry was delivered.
func (m *DLQManager) handleEntry(ctx context.Context, entry dlqEntry) (bool, error) {
	if entry.RetryCount >= m.maxRetries {
		if _, err := m.pool.Exec(ctx,
			`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`,
			"retry limit reached", entry.ID,
		); err != nil {
			return false, err
		}
		recordDLQQuarantined(entry)
		return false, nil
	}

	if replayErr := m.replay(ctx, entry); replayErr != nil {
		delay := m.backoffDelay(entry.RetryCount + 1)
		if _, err := m.pool.Exec(ctx,
			`UPDATE outbox_dlq
               SET retry_count = retry_count + 1,
                   last_attempt_at = NOW(),
                   next_retry_at = NOW() + $1::interval,
                   reason = $2
             WHERE dlq_id = $3`,
			delay, replayErr.Error(), entry.ID,
		); err != nil {
			return false, err
		}
		recordDLQRetry(entry)
		return false, nil
	}

	if _, err := m.pool.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return false, err
	}
	recordDLQProcessed(entry)
	return true, nil
}

func (m *DLQManager) replay(ctx context.Context, entry dlqEntry) error {
	if entry.SchemaSubject == "" {
		return fmt.Errorf("missing schema_subject for dlq entry %d", entry.ID)
	}
	record, err := m.encoder.encode(ctx, entry.message())
	if err != nil {
		return err
	}
	return m.producer.WriteMessages(ctx, entry.Topic, record)
}

// backoffDelay calculates exponential backoff capped at one hour.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return time.Hour
	}
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay
}

// dlqEntry represents an outbox_dlq row selected for processing.
type dlqEntry struct {
	ID            int64
	EventID       string
	EventType     string
	Activity      string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       []byte
	Reason        string
	RetryCount    int
}

func (e dlqEntry) message() Message {
	return Message{
		EventID:       e.EventID,
		EventType:     e.EventType,
		Activity:      e.Activity,
		Topic:         e.Topic,
		SchemaSubject: e.SchemaSubject,
		PartitionKey:  e.PartitionKey,
		Payload:       e.Payload,
	}
}

func scanDLQEntry(row pgx.CollectableRow) (dlqEntry, error) {
	var entry dlqEntry
	err := row.Scan(&entry.ID, &entry.EventID, &entry.EventType, &entry.Activity, &entry.Topic, &entry.SchemaSubject, &entry.PartitionKey, &entry.Payload, &entry.Reason, &entry.RetryCount)
	return entry, err
}
