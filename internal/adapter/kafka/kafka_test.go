package kafka

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
)

func TestSerializeReport(t *testing.T) {
	finished := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	s := pipeline.Summary{
		BatchID:     "6f1c2a9e-0000-4000-8000-000000000001",
		Outcome:     pipeline.OutcomeMerged,
		StartedAt:   finished.Add(-3 * time.Second),
		FinishedAt:  finished,
		Discovered:  3,
		Converted:   2,
		Quarantined: 1,
		RowsMerged:  40,
		Archived:    2,
		Files: []pipeline.FileResult{
			{Name: "wt_data_1.json", Status: pipeline.Converted, Accepted: 20},
		},
	}

	msg, err := serializeReport(s)
	require.NoError(t, err)

	assert.Equal(t, []byte(s.BatchID), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "outcome", msg.Headers[0].Key)
	assert.Equal(t, []byte("merged"), msg.Headers[0].Value)
	assert.Equal(t, "finished_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)

	var decoded pipeline.Summary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, s, decoded)
	assert.Contains(t, string(msg.Value), `"rows_merged":40`)
}

func TestNewReportWriter_UsesReportTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaReportTopic: "reports"}
	w := NewReportWriter(cfg, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { w.Close() })

	assert.Equal(t, "reports", w.writer.Topic)
}
