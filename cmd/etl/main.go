package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
	"github.com/couchcryptid/weather-data-etl/internal/store"
	_ "github.com/couchcryptid/weather-data-etl/internal/store/all"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := store.Open(ctx, store.Config{Kind: cfg.StoreKind, DSN: cfg.StoreDSN, Table: cfg.TableName})
	if err != nil {
		logger.Error("failed to open store", "kind", cfg.StoreKind, "error", err)
		os.Exit(1)
	}
	logger.Info("store opened", "kind", cfg.StoreKind, "table", cfg.TableName)

	opts := []pipeline.Option{}
	var reports *kafkaadapter.ReportWriter
	if cfg.ReportingEnabled() {
		reports = kafkaadapter.NewReportWriter(cfg, logger)
		opts = append(opts, pipeline.WithReporter(reports))
		logger.Info("batch reporting enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("batch reporting disabled")
	}

	p := pipeline.New(pipeline.Config{
		InputDir:       cfg.InputDir,
		OutputDir:      cfg.OutputDir,
		ArchiveDir:     cfg.ArchiveDir,
		QuarantineDir:  cfg.QuarantineDir,
		Workers:        cfg.Workers,
		Bounds:         domain.Bounds{YearMin: cfg.YearMin, YearMax: cfg.YearMax},
		CoordPrecision: cfg.CoordPrecision,
	}, gw, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:          p,
		Runner:         p,
		Inbox:          pipeline.NewInbox(cfg.InputDir),
		Summaries:      gw,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start batch scheduling.
	batchesDone := make(chan struct{})
	go func() {
		defer close(batchesDone)
		if cfg.RunOnStart {
			if _, err := p.Run(ctx); err != nil {
				logger.Error("startup batch failed", "error", err)
			}
		}
		if cfg.PollInterval > 0 {
			logger.Info("polling input directory", "dir", cfg.InputDir, "interval", cfg.PollInterval)
			p.RunEvery(ctx, cfg.PollInterval)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-batchesDone:
	case <-shutdownCtx.Done():
		logger.Warn("batch still running at shutdown timeout")
	}
	if reports != nil {
		if err := reports.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := gw.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
