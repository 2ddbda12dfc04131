package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// Producer publishes queue lifecycle events for downstream collaborators and
// doubles as the notification delivery sink. All publishes are best-effort
// from the caller's point of view: the queue services log failures and never
// roll back a committed mutation over them.
type Producer interface {
	PublishQueueAdmitted(ctx context.Context, event QueueAdmittedEvent) error
	PublishStatusChanged(ctx context.Context, event QueueStatusChangedEvent) error
	PublishBillingReady(ctx context.Context, event BillingReadyEvent) error

	// Send implements notification.Sink.
	Send(ctx context.Context, n models.Notification) error

	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	l        logger.Logger
}

func NewProducer(producer sarama.SyncProducer, l logger.Logger) Producer {
	return &kafkaProducer{producer: producer, l: l}
}

// ProducerConfig holds the broker bootstrap settings for Connect.
type ProducerConfig struct {
	Brokers      []string
	RetryMax     int
	RequiredAcks int
}

// Connect dials the brokers with a synchronous producer configured for
// acknowledged writes and wraps it as a Producer.
func Connect(cfg ProducerConfig, l logger.Logger) (Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	saramaCfg.Producer.Retry.Max = cfg.RetryMax
	saramaCfg.Producer.Return.Successes = true

	prod, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	l.Info("kafka producer connected", "brokers", cfg.Brokers)

	return NewProducer(prod, l), nil
}

func (p *kafkaProducer) PublishQueueAdmitted(ctx context.Context, event QueueAdmittedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(TopicQueueAdmitted, string(event.Branch), event)
}

func (p *kafkaProducer) PublishStatusChanged(ctx context.Context, event QueueStatusChangedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(TopicQueueStatusChanged, string(event.Branch), event)
}

func (p *kafkaProducer) PublishBillingReady(ctx context.Context, event BillingReadyEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(TopicBillingReady, string(event.Branch), event)
}

func (p *kafkaProducer) Send(ctx context.Context, n models.Notification) error {
	if err := p.publishEvent(TopicNotification, n.RecipientID, n); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSinkUnavailable, err)
	}
	return nil
}

func (p *kafkaProducer) publishEvent(topic string, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		// Partition by branch (or recipient) so per-key ordering holds.
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.l.Error("Failed to send kafka message",
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("failed to send kafka message: %w", err)
	}

	p.l.Debug("Kafka message sent",
		"topic", topic,
		"partition", partition,
		"offset", offset,
		"key", key,
	)

	return nil
}

func (p *kafkaProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	p.l.Info("Kafka producer closed")
	return nil
}
