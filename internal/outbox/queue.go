package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"example.com/clubs/internal/events"
)

// ErrQueueFull is returned by Publish when the queue is at capacity.
var ErrQueueFull = errors.New("outbox queue full")

// Queue buffers roster events in memory until the Dispatcher drains them.
type Queue struct {
	topic    string
	capacity int

	mu    sync.Mutex
	items []Message
}

// NewQueue constructs a Queue that routes events to topic.
func NewQueue(topic string, capacity int) *Queue {
	return &Queue{topic: topic, capacity: capacity}
}

// Publish encodes the event and appends it to the queue.
func (q *Queue) Publish(_ context.Context, event events.RosterChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := Message{
		EventID:       event.EventID,
		EventType:     event.Kind,
		Activity:      event.Activity,
		Topic:         q.topic,
		SchemaSubject: q.topic + "-value",
		PartitionKey:  event.Activity,
		Payload:       payload,
		EnqueuedAt:    time.Now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		droppedCounter.WithLabelValues(msg.EventType).Inc()
		return ErrQueueFull
	}
	q.items = append(q.items, msg)
	queueDepthGauge.Set(float64(len(q.items)))
	return nil
}

// Len reports the number of buffered messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain removes and returns up to n messages in FIFO order.
func (q *Queue) drain(n int) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.items) {
		n = len(q.items)
	}
	if n == 0 {
		return nil
	}
	out := make([]Message, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	queueDepthGauge.Set(float64(len(q.items)))
	return out
}
