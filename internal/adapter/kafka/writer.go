package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/config"
	"github.com/couchcryptid/ecoguard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces report events to a Kafka topic.
// It implements pipeline.BatchPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch writes the events in one WriteMessages call. Events for the
// same report share a key and so land on the same partition in order.
func (w *Writer) PublishBatch(ctx context.Context, events []domain.ReportEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d report events: %w", len(msgs), err)
	}
	w.logger.Debug("report events published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ReportEvent into a Kafka message. Inline
// data-URL images are dropped from the payload; blob URLs are kept.
func serializeToMessage(event domain.ReportEvent) (kafkago.Message, error) {
	if strings.HasPrefix(event.Report.Image, "data:") {
		event.Report.Image = ""
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
