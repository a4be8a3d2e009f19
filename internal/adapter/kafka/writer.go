package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
)

// ReportWriter publishes batch summaries to a Kafka topic.
// It implements pipeline.Reporter.
type ReportWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// Report serializes s and publishes it keyed by batch id.
func (w *ReportWriter) Report(ctx context.Context, s pipeline.Summary) error {
	msg, err := serializeReport(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish batch report: %w", err)
	}
	w.logger.Debug("batch report published", "batch_id", s.BatchID, "topic", w.writer.Topic)
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeReport marshals a batch summary into a Kafka message.
func serializeReport(s pipeline.Summary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize batch report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.BatchID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(s.Outcome)},
			{Key: "finished_at", Value: []byte(s.FinishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
