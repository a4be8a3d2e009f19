package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputDir      string
	OutputDir     string
	ArchiveDir    string
	QuarantineDir string

	StoreKind string
	StoreDSN  string
	TableName string

	Workers        int
	YearMin        int
	YearMax        int
	CoordPrecision int

	PollInterval time.Duration
	RunOnStart   bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	// Batch reports are published only when brokers are configured.
	KafkaBrokers     []string
	KafkaReportTopic string
}

// ReportingEnabled reports whether batch reports should be published to Kafka.
func (c *Config) ReportingEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	workers, err := parseInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	yearMin, err := parseInt("YEAR_MIN", 1900)
	if err != nil {
		return nil, err
	}
	yearMax, err := parseInt("YEAR_MAX", 2100)
	if err != nil {
		return nil, err
	}
	precision, err := parseInt("COORD_PRECISION", 6)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parseInt("MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("POLL_INTERVAL", "0s"))
	if err != nil || pollInterval < 0 {
		return nil, errors.New("invalid POLL_INTERVAL")
	}

	runOnStart, err := strconv.ParseBool(sharedcfg.EnvOrDefault("RUN_ON_START", "true"))
	if err != nil {
		return nil, errors.New("invalid RUN_ON_START")
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		InputDir:      sharedcfg.EnvOrDefault("INPUT_DIR", "new_data"),
		OutputDir:     sharedcfg.EnvOrDefault("OUTPUT_DIR", "parquet_data"),
		ArchiveDir:    sharedcfg.EnvOrDefault("ARCHIVE_DIR", "raw_data"),
		QuarantineDir: sharedcfg.EnvOrDefault("QUARANTINE_DIR", "error_data"),

		StoreKind: sharedcfg.EnvOrDefault("STORE_KIND", "duckdb"),
		StoreDSN:  sharedcfg.EnvOrDefault("STORE_DSN", "database/weather_data.duckdb"),
		TableName: sharedcfg.EnvOrDefault("TABLE_NAME", "weather_data_table"),

		Workers:        workers,
		YearMin:        yearMin,
		YearMax:        yearMax,
		CoordPrecision: precision,

		PollInterval: pollInterval,
		RunOnStart:   runOnStart,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MaxUploadBytes:  int64(maxUpload),

		KafkaBrokers:     brokers,
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "weather-batch-reports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	dirs := map[string]string{
		"INPUT_DIR":      c.InputDir,
		"OUTPUT_DIR":     c.OutputDir,
		"ARCHIVE_DIR":    c.ArchiveDir,
		"QUARANTINE_DIR": c.QuarantineDir,
	}
	seen := make(map[string]string, len(dirs))
	for _, name := range []string{"INPUT_DIR", "OUTPUT_DIR", "ARCHIVE_DIR", "QUARANTINE_DIR"} {
		dir := dirs[name]
		if dir == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("%s must differ from %s", name, other)
		}
		seen[dir] = name
	}

	switch c.StoreKind {
	case "duckdb", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid STORE_KIND %q: want duckdb, sqlite or postgres", c.StoreKind)
	}
	if c.TableName == "" {
		return errors.New("TABLE_NAME is required")
	}

	if c.Workers < 1 {
		return errors.New("WORKERS must be at least 1")
	}
	if c.YearMin > c.YearMax {
		return errors.New("YEAR_MIN must not exceed YEAR_MAX")
	}
	if c.CoordPrecision < -1 || c.CoordPrecision > 15 {
		return errors.New("COORD_PRECISION must be between -1 and 15")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.ReportingEnabled() && c.KafkaReportTopic == "" {
		return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
