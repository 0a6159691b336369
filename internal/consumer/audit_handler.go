package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/clubs/internal/events"
	"example.com/clubs/internal/persistence/postgres"
)

// EventStore is the subset of postgres.EventLog used by AuditHandler.
type EventStore interface {
	Append(ctx context.Context, entry postgres.LogEntry) error
}

// AuditHandler appends consumed roster events to the audit log.
type AuditHandler struct {
	store EventStore
}

// NewAuditHandler constructs a handler backed by the provided store.
func NewAuditHandler(store EventStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// Handle decodes the roster payload and stores it with its Kafka coordinates.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	var event events.RosterChanged
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode roster event: %w", err)
	}
	if event.EventID == "" {
		event.EventID = msg.EventID
	}

	return h.store.Append(ctx, postgres.LogEntry{
		EventID:       event.EventID,
		EventType:     msg.EventType,
		Activity:      event.Activity,
		Email:         event.Email,
		RosterSize:    event.RosterSize,
		Capacity:      event.Capacity,
		OccurredAt:    event.OccurredAt,
		SchemaID:      msg.SchemaID,
		SchemaSubject: msg.SchemaSubject,
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		Payload:       msg.Payload,
	})
}
