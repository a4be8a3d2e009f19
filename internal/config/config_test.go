package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "new_data", cfg.InputDir)
	assert.Equal(t, "parquet_data", cfg.OutputDir)
	assert.Equal(t, "raw_data", cfg.ArchiveDir)
	assert.Equal(t, "error_data", cfg.QuarantineDir)
	assert.Equal(t, "duckdb", cfg.StoreKind)
	assert.Equal(t, "database/weather_data.duckdb", cfg.StoreDSN)
	assert.Equal(t, "weather_data_table", cfg.TableName)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 1900, cfg.YearMin)
	assert.Equal(t, 2100, cfg.YearMax)
	assert.Equal(t, 6, cfg.CoordPrecision)
	assert.Zero(t, cfg.PollInterval)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.ReportingEnabled())
	assert.Equal(t, "weather-batch-reports", cfg.KafkaReportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/in")
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("ARCHIVE_DIR", "/data/archive")
	t.Setenv("QUARANTINE_DIR", "/data/bad")
	t.Setenv("STORE_KIND", "sqlite")
	t.Setenv("STORE_DSN", "/data/weather.db")
	t.Setenv("TABLE_NAME", "readings")
	t.Setenv("WORKERS", "3")
	t.Setenv("YEAR_MIN", "1945")
	t.Setenv("YEAR_MAX", "2025")
	t.Setenv("COORD_PRECISION", "4")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("RUN_ON_START", "false")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "/data/archive", cfg.ArchiveDir)
	assert.Equal(t, "/data/bad", cfg.QuarantineDir)
	assert.Equal(t, "sqlite", cfg.StoreKind)
	assert.Equal(t, "/data/weather.db", cfg.StoreDSN)
	assert.Equal(t, "readings", cfg.TableName)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 1945, cfg.YearMin)
	assert.Equal(t, 2025, cfg.YearMax)
	assert.Equal(t, 4, cfg.CoordPrecision)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.False(t, cfg.RunOnStart)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.ReportingEnabled())
	assert.Equal(t, "reports", cfg.KafkaReportTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"non-numeric workers", map[string]string{"WORKERS": "many"}, "WORKERS"},
		{"zero workers", map[string]string{"WORKERS": "0"}, "WORKERS"},
		{"inverted year bounds", map[string]string{"YEAR_MIN": "2000", "YEAR_MAX": "1999"}, "YEAR_MIN"},
		{"bad year", map[string]string{"YEAR_MAX": "soon"}, "YEAR_MAX"},
		{"precision too large", map[string]string{"COORD_PRECISION": "16"}, "COORD_PRECISION"},
		{"bad poll interval", map[string]string{"POLL_INTERVAL": "often"}, "POLL_INTERVAL"},
		{"negative poll interval", map[string]string{"POLL_INTERVAL": "-1s"}, "POLL_INTERVAL"},
		{"bad run on start", map[string]string{"RUN_ON_START": "maybe"}, "RUN_ON_START"},
		{"unknown store", map[string]string{"STORE_KIND": "mysql"}, "STORE_KIND"},
		{"zero upload limit", map[string]string{"MAX_UPLOAD_BYTES": "0"}, "MAX_UPLOAD_BYTES"},
		{"shared directories", map[string]string{"ARCHIVE_DIR": "new_data"}, "ARCHIVE_DIR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_PrecisionDisabled(t *testing.T) {
	t.Setenv("COORD_PRECISION", "-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.CoordPrecision)
}
