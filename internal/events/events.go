// Package events delivers domain events to the host event bus. The bus is
// optional: when no brokers are configured the Nop publisher is used and every
// publish quietly succeeds.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers a named event with a small JSON payload.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
	Close() error
}

// Nop is the degraded publisher used when no bus is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// Kafka publishes events to a single topic, keyed by event name.
type Kafka struct {
	w *kafka.Writer
}

// NewKafka creates a publisher writing to the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish serializes the payload and writes one message.
func (k *Kafka) Publish(ctx context.Context, event string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish event %s: %w", event, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}

var (
	_ Publisher = (*Kafka)(nil)
	_ Publisher = Nop{}
)
