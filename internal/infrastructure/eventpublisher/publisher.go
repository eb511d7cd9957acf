// Package eventpublisher announces committed ledger transactions to
// external systems.
package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/acctledger/internal/domain"
)

// DefaultTopic receives transaction.recorded events.
const DefaultTopic = "ledger.transactions"

const eventTypeHeader = "event_type"

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publishBatchTimeout bounds how long a synchronous publish waits for a
// batch to fill; each transfer writes a single message.
const publishBatchTimeout = 10 * time.Millisecond

// KafkaPublisher publishes transaction.recorded events to Kafka, keyed by
// transaction id.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// KafkaConfig configures a KafkaPublisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.Timeout,
		BatchTimeout:           publishBatchTimeout,
		AllowAutoTopicCreation: true,
	}

	return newKafkaPublisherWithWriter(writer, cfg.Timeout)
}

func newKafkaPublisherWithWriter(writer MessageWriter, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

// PublishTransaction writes one event for txn.
func (p *KafkaPublisher) PublishTransaction(ctx context.Context, txn *domain.Transaction) error {
	payload, err := json.Marshal(NewTransactionRecordedEvent(txn))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(txn.ID),
		Value: payload,
		Time:  txn.CreatedAt,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(domain.EventTypeTransactionRecorded)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", txn.ID, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of sending them anywhere.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishTransaction logs the event.
func (p *LogPublisher) PublishTransaction(_ context.Context, txn *domain.Transaction) error {
	event := NewTransactionRecordedEvent(txn)

	p.logger.Info().
		Str("event_type", domain.EventTypeTransactionRecorded).
		Str("transaction_id", event.TransactionID).
		Str("sender_id", event.SenderID).
		Str("receiver_id", event.ReceiverID).
		Str("amount", event.Amount).
		Msg("event published")

	return nil
}

// NewTransactionRecordedEvent builds the event payload for txn.
func NewTransactionRecordedEvent(txn *domain.Transaction) domain.TransactionRecordedEvent {
	return domain.TransactionRecordedEvent{
		TransactionID: txn.ID,
		SenderID:      txn.SenderID,
		ReceiverID:    txn.ReceiverID,
		Amount:        domain.FormatMoney(txn.Amount),
		Date:          txn.Date.UTC().Format(time.RFC3339Nano),
	}
}
