// Package events announces order lifecycle changes to other systems.
// Publishing is best effort: a failure is returned to the caller, which
// logs it without undoing the order write.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

// Event types
const (
	OrderPlaced = "order.placed"
	OrderReady  = "order.ready"
)

// OrderEvent is the message body
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Total      string             `json:"total"`
	Status     models.OrderStatus `json:"status"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NewOrderEvent builds an event of the given type for o
func NewOrderEvent(eventType string, o models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		Status:     o.Status,
		OccurredAt: at,
	}
}

// Publisher sends order events
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// KafkaPublisher writes events to a kafka topic keyed by order id
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

// NewKafkaPublisher connects a synchronous producer to brokers, a
// comma-separated list.
func NewKafkaPublisher(brokers, topic string, log *slog.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 0
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second

	brokerList := strings.Split(brokers, ",")
	producer, err := sarama.NewSyncProducer(brokerList, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: create kafka producer: %w", err)
	}

	log.Info("kafka publisher ready", "brokers", brokerList, "topic", topic)
	return newKafkaPublisher(producer, topic, log), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: send %s: %w", event.Type, err)
	}

	p.log.Debug("order event published", "type", event.Type, "order_id", event.OrderID, "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher logs events at debug level and drops them. It is used when
// no kafka brokers are configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event OrderEvent) error {
	p.log.DebugContext(ctx, "order event", "type", event.Type, "order_id", event.OrderID, "status", event.Status)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps every event in memory for tests to inspect.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Publish(ctx context.Context, event OrderEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far
func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}
