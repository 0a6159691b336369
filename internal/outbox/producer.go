package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Roster traffic is a few events per signup, so batches are flushed quickly
// instead of waiting for the kafka-go default of one second.
const (
	rosterBatchTimeout = 10 * time.Millisecond
	rosterWriteTimeout = 5 * time.Second
)

// KafkaProducer keeps one writer per topic. Records are hashed by key, which
// is the activity name, so one activity's roster changes stay ordered on a
// single partition.
type KafkaProducer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages writes roster records to topic.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerForTopic(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           rosterBatchTimeout,
		WriteTimeout:           rosterWriteTimeout,
		AllowAutoTopicCreation: true,
		Completion:             recordCompletion(topic),
	}
	p.writers[topic] = writer
	return writer
}

// recordCompletion counts acknowledged and rejected records per activity.
func recordCompletion(topic string) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		for _, msg := range msgs {
			activity := string(msg.Key)
			if activity == "" {
				activity = "_unknown"
			}
			kafkaWritesCounter.WithLabelValues(topic, activity, result).Inc()
		}
	}
}

// Close flushes and releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
