// Package eventstream publishes security events to a Kafka topic so other
// systems can consume them alongside the access_logs table.
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the sink needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each access log entry as one JSON message
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaSink creates a synchronous producer for topic. Sends are already
// detached from the request by the event logger, so the writer does not batch.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka security event sink configured",
		slog.Any("brokers", brokers),
		slog.String("topic", topic),
	)

	return newKafkaSink(writer, topic, logger)
}

func newKafkaSink(writer messageWriter, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic, logger: logger}
}

func (s *KafkaSink) Name() string { return "kafka" }

// Send publishes entry keyed by user id, or by email for events without one,
// so one identity's events land on one partition in order.
func (s *KafkaSink) Send(ctx context.Context, entry *models.AccessLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode security event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(entry)),
		Value: payload,
		Time:  entry.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(entry.EventType)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if err := s.writer.Close(); err != nil {
		s.logger.Error("failed to close kafka writer", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("kafka security event sink closed")
	return nil
}

func messageKey(entry *models.AccessLog) string {
	switch {
	case entry.UserID != nil && *entry.UserID != "":
		return *entry.UserID
	case entry.Email != nil && *entry.Email != "":
		return *entry.Email
	}
	return entry.EventType
}
