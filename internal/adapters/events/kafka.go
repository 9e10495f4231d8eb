package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// KafkaConfig configures the producer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	WriteTimeout time.Duration
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by the event key, so all
// events of one transfer land on the same partition in order.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

var _ portssvc.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxAttempts,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic, timeout: cfg.WriteTimeout}
}

func newKafkaPublisherWithWriter(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, timeout: time.Second}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to write event %s to %s: %w", event.Type, p.topic, err)
	}
	middleware.GetLoggerFromCtx(ctx).Debug("Kafka event sent", slog.String("topic", p.topic), slog.String("event_type", event.Type), slog.String("key", event.Key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
