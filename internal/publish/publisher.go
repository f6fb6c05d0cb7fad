// Package publish delivers sync events to Kafka on a best-effort basis.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/fitbitsync/internal/events"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// topicCatalog routes event names onto Kafka topics.
var topicCatalog = map[string]string{
	events.TypeActivitiesSynced: "fitbit_activity_events",
	events.TypeSleepSynced:      "fitbit_sleep_events",
	events.TypeBodyWeightSynced: "fitbit_body_events",
	events.TypeDevicesSynced:    "fitbit_device_events",
	events.TypeTimeSeriesSynced: "fitbit_timeseries_events",
	events.TypeIntradaySynced:   "fitbit_timeseries_events",
	events.TypeLastSyncUpdated:  "fitbit_sync_status",
	events.TypeSyncFailed:       "fitbit_sync_status",
	events.TypeSyncRequested:    "sync_requests",
}

// Publisher serializes payloads onto the catalog topic for their event name.
// Delivery is fire-and-forget from the caller's perspective: the caller logs
// the returned error and moves on.
type Publisher struct {
	producer messageWriter
}

// NewPublisher constructs a Publisher around a message writer.
func NewPublisher(producer messageWriter) *Publisher {
	return &Publisher{producer: producer}
}

// Publish marshals payload and writes one message keyed by routingKey.
func (p *Publisher) Publish(ctx context.Context, eventName string, payload interface{}, routingKey string) error {
	topic, ok := topicCatalog[eventName]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventName)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventName, err)
	}

	msg := kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventName)},
		},
	}

	if err := p.producer.WriteMessages(ctx, topic, msg); err != nil {
		failedCounter.WithLabelValues(topic, eventName).Inc()
		return err
	}
	publishedCounter.WithLabelValues(topic, eventName).Inc()
	return nil
}

// KafkaProducer lazily manages writers per topic.
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

// WriteMessages writes messages to the given topic, creating a writer if necessary.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer := p.writerForTopic(topic)
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
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
