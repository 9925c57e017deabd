package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages to a single topic.
type KafkaPublisher struct {
	writer     messageWriter
	propagator propagation.TextMapPropagator
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("events: kafka brokers not configured")
	}
	if topic == "" {
		return nil, errors.New("events: kafka topic not configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newKafkaPublisher(writer, otel.GetTextMapPropagator()), nil
}

func newKafkaPublisher(writer messageWriter, propagator propagation.TextMapPropagator) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, propagator: propagator}
}

// Publish writes event keyed by its aggregate ID, carrying event_id,
// event_type and the caller's trace context as headers.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	msg.Headers = InjectTraceHeaders(ctx, p.propagator, msg.Headers)

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ReadyCheck dials the first broker.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}
