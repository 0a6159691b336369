// Package outbox buffers roster events and delivers them to Kafka.
package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/clubs/internal/events"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// FailureSink receives messages that could not be delivered.
type FailureSink interface {
	Write(ctx context.Context, msg Message, reason string) error
}

// Dispatcher drains the Queue and delivers events to Kafka using Schema Registry metadata.
type Dispatcher struct {
	queue            *Queue
	producer         messageWriter
	encoder          *recordEncoder
	failures         FailureSink
	pollInterval     time.Duration
	batchSize        int
	logger           *zap.Logger
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(queue *Queue, producer messageWriter, registry schemaRegistrar, failures FailureSink, pollInterval time.Duration, batchSize int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == nil {
		failures = NewLogSink(logger)
	}
	return &Dispatcher{
		queue:            queue,
		producer:         producer,
		encoder:          newRecordEncoder(registry),
		failures:         failures,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		logger:           logger,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine. On
// cancellation the remaining queue is flushed once with a short deadline.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		d.flush()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("outbox dispatcher error", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for d.queue.Len() > 0 {
		if err := d.processBatch(ctx); err != nil {
			d.logger.Warn("outbox flush stopped", zap.Error(err), zap.Int("remaining", d.queue.Len()))
			return
		}
	}
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	messages := d.queue.drain(d.batchSize)
	if len(messages) == 0 {
		return nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.deliver(ctx, messages); err != nil {
		d.logger.Warn("outbox delivery failure", zap.Error(err), zap.Int("messages", len(messages)))
		failedCounter.Add(float64(len(messages)))
		return d.moveToDLQ(ctx, messages, err.Error())
	}

	deliveredCounter.Add(float64(len(messages)))
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)
	order := make([]string, 0, 1)

	for _, msg := range messages {
		record, err := d.encoder.encode(ctx, msg)
		if err != nil {
			return err
		}
		if _, exists := batches[msg.Topic]; !exists {
			order = append(order, msg.Topic)
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for _, topic := range order {
		if err := d.producer.WriteMessages(ctx, topic, batches[topic]...); err != nil {
			return fmt.Errorf("write topic %s: %w", topic, err)
		}
	}
	return nil
}

func (d *Dispatcher) moveToDLQ(ctx context.Context, messages []Message, reason string) error {
	var errs error
	for _, msg := range messages {
		entryReason := fmt.Sprintf("%s (topic=%s)", reason, msg.Topic)
		if err := d.failures.Write(ctx, msg, entryReason); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		dlqCounter.WithLabelValues(msg.Topic).Inc()
	}
	return errs
}

// Message is a roster event waiting for delivery.
type Message struct {
	EventID       string
	EventType     string
	Activity      string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
	EnqueuedAt    time.Time
}

// recordEncoder turns Messages into framed Kafka records, caching schema ids.
type recordEncoder struct {
	registry      schemaRegistrar
	schemaIDCache sync.Map
}

func newRecordEncoder(registry schemaRegistrar) *recordEncoder {
	return &recordEncoder{registry: registry}
}

func (e *recordEncoder) encode(ctx context.Context, msg Message) (kafka.Message, error) {
	meta, ok := schemaCatalog[msg.EventType]
	if !ok {
		return kafka.Message{}, fmt.Errorf("no schema metadata for event_type=%s", msg.EventType)
	}

	cacheKey := msg.SchemaSubject + "::" + meta.Schema
	var schemaID int
	if cached, found := e.schemaIDCache.Load(cacheKey); found {
		schemaID = cached.(int)
	} else {
		id, err := e.registry.EnsureSchema(ctx, msg.SchemaSubject, meta.Schema)
		if err != nil {
			return kafka.Message{}, err
		}
		e.schemaIDCache.Store(cacheKey, id)
		schemaID = id
	}

	return kafka.Message{
		Key:   []byte(msg.PartitionKey),
		Value: encodeWireFormat(schemaID, msg.Payload),
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "event_id", Value: []byte(msg.EventID)},
			{Key: "activity", Value: []byte(msg.Activity)},
			{Key: "schema_subject", Value: []byte(msg.SchemaSubject)},
		},
	}, nil
}

// encodeWireFormat applies Confluent framing for Schema Registry aware payloads.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.KindSignedUp:     {Schema: rosterChangedSchema},
	events.KindUnregistered: {Schema: rosterChangedSchema},
}
