package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/columnar"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/couchcryptid/weather-data-etl/internal/store"
)

// Merger upserts columnar files into the analytical table.
type Merger interface {
	Merge(ctx context.Context, paths []string) (store.MergeResult, error)
	Ping(ctx context.Context) error
}

// Reporter publishes a finished batch summary. Reporting is best effort.
type Reporter interface {
	Report(ctx context.Context, s Summary) error
}

// Outcome is the result of one batch run.
type Outcome string

const (
	OutcomeNoWork         Outcome = "no_work"
	OutcomeMerged         Outcome = "merged"
	OutcomeNothingToMerge Outcome = "nothing_to_merge"
	OutcomeMergeFailed    Outcome = "merge_failed"
	OutcomeCancelled      Outcome = "cancelled"

	// OutcomeError means the batch could not start, e.g. an unreadable input directory.
	OutcomeError Outcome = "error"
)

// FileResult describes one input file in a batch summary.
type FileResult struct {
	Name     string            `json:"name"`
	Status   ConversionOutcome `json:"status"`
	Accepted int               `json:"accepted"`
	Rejected int               `json:"rejected"`
	Error    string            `json:"error,omitempty"`
}

// Summary reports what one batch run did.
type Summary struct {
	BatchID     string       `json:"batch_id"`
	Outcome     Outcome      `json:"outcome"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Discovered  int          `json:"discovered"`
	Converted   int          `json:"converted"`
	Quarantined int          `json:"quarantined"`
	Failed      int          `json:"failed"`
	RowsMerged  int64        `json:"rows_merged"`
	Archived    int          `json:"archived"`
	Files       []FileResult `json:"files,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Config holds the directories and validation settings for a Pipeline.
type Config struct {
	InputDir       string
	OutputDir      string
	ArchiveDir     string
	QuarantineDir  string
	Workers        int
	Bounds         domain.Bounds
	CoordPrecision int
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithReporter publishes a summary after every batch that found work.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithColumnarWriter replaces the columnar codec used for intermediate output.
func WithColumnarWriter(w ColumnarWriter) Option {
	return func(p *Pipeline) { p.writer = w }
}

// Pipeline runs discover, convert, merge and finalize as one batch. Runs are
// serialized: concurrent callers wait for the batch in progress.
type Pipeline struct {
	cfg      Config
	merger   Merger
	reporter Reporter
	writer   ColumnarWriter
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	scheduler *Scheduler
	finalizer *Finalizer

	mu sync.Mutex
}

// New creates a Pipeline that merges into m.
func New(cfg Config, m Merger, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		merger:  m,
		writer:  columnar.Codec{},
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}

	mover := NewMover(p.clock)
	converter := NewConverter(ConverterConfig{
		OutputDir:      cfg.OutputDir,
		QuarantineDir:  cfg.QuarantineDir,
		Bounds:         cfg.Bounds,
		CoordPrecision: cfg.CoordPrecision,
	}, p.writer, mover, logger)
	p.scheduler = NewScheduler(cfg.InputDir, cfg.Workers, converter, logger)
	p.finalizer = NewFinalizer(cfg.ArchiveDir, mover, logger)
	return p
}

// CheckReadiness reports whether the analytical store is reachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if err := p.merger.Ping(ctx); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	return nil
}

// Run processes every file currently in the input directory as one batch.
// Only a merge failure (wrapping domain.ErrMerge), cancellation, or an
// unreadable input directory produce an error; per-file problems are reported
// in the Summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	sum := Summary{BatchID: uuid.NewString(), StartedAt: p.clock.Now()}
	log := p.logger.With("batch_id", sum.BatchID)

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return p.finish(sum, OutcomeError, fmt.Errorf("create output dir: %w", err))
	}

	paths, err := p.scheduler.Discover()
	if err != nil {
		return p.finish(sum, OutcomeError, err)
	}
	sum.Discovered = len(paths)
	p.metrics.FilesDiscovered.Add(float64(len(paths)))
	if len(paths) == 0 {
		log.Debug("no input files")
		return p.finish(sum, OutcomeNoWork, nil)
	}

	log.Info("batch started", "files", len(paths), "workers", p.scheduler.workers)
	conversions := p.scheduler.ConvertAll(ctx, paths)
	outputs := p.tally(&sum, conversions)

	if err := ctx.Err(); err != nil {
		return p.report(p.finish(sum, OutcomeCancelled, err))
	}
	if len(outputs) == 0 {
		log.Info("batch produced no columnar output", "quarantined", sum.Quarantined, "failed", sum.Failed)
		return p.report(p.finish(sum, OutcomeNothingToMerge, nil))
	}

	res, err := p.merger.Merge(ctx, outputs)
	if err != nil {
		p.metrics.MergeFailures.Inc()
		log.Error("merge failed, batch left in place for retry", "files", len(outputs), "error", err)
		return p.report(p.finish(sum, OutcomeMergeFailed, fmt.Errorf("%w: %w", domain.ErrMerge, err)))
	}
	sum.RowsMerged = res.Rows
	p.metrics.RowsMerged.Add(float64(res.Rows))

	fin := p.finalizer.Finalize(conversions)
	sum.Archived = fin.Archived
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))

	log.Info("batch merged",
		"converted", sum.Converted,
		"quarantined", sum.Quarantined,
		"failed", sum.Failed,
		"rows_merged", sum.RowsMerged,
		"archived", sum.Archived,
	)
	return p.report(p.finish(sum, OutcomeMerged, nil))
}

// RunEvery runs a batch on every tick of interval until ctx is cancelled.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("scheduled batch failed", "error", err)
			}
		}
	}
}

// tally records conversions in sum and metrics and returns the converted
// outputs in discovery order.
func (p *Pipeline) tally(sum *Summary, conversions []Conversion) []string {
	var outputs []string
	sum.Files = make([]FileResult, 0, len(conversions))
	for _, c := range conversions {
		fr := FileResult{
			Name:     filepath.Base(c.Input),
			Status:   c.Outcome,
			Accepted: c.Accepted,
			Rejected: c.Rejected,
		}
		if c.Err != nil {
			fr.Error = c.Err.Error()
		}
		sum.Files = append(sum.Files, fr)

		p.metrics.RowsAccepted.Add(float64(c.Accepted))
		for col, n := range c.RejectedByColumn {
			p.metrics.RowsRejected.WithLabelValues(col).Add(float64(n))
		}

		switch c.Outcome {
		case Converted:
			sum.Converted++
			p.metrics.FilesConverted.Inc()
			outputs = append(outputs, c.Output)
		case Rejected:
			sum.Quarantined++
			p.metrics.FilesQuarantined.WithLabelValues(c.QuarantineReason()).Inc()
		case Failed:
			sum.Failed++
			p.metrics.FilesFailed.Inc()
		}
	}
	return outputs
}

func (p *Pipeline) finish(sum Summary, outcome Outcome, err error) (Summary, error) {
	sum.Outcome = outcome
	sum.FinishedAt = p.clock.Now()
	if err != nil {
		sum.Error = err.Error()
	}
	p.metrics.Batches.WithLabelValues(string(outcome)).Inc()
	p.metrics.BatchDuration.Observe(sum.FinishedAt.Sub(sum.StartedAt).Seconds())
	return sum, err
}

// report publishes sum without letting a publishing failure change the result.
func (p *Pipeline) report(sum Summary, err error) (Summary, error) {
	if p.reporter == nil {
		return sum, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rerr := p.reporter.Report(ctx, sum); rerr != nil {
		p.logger.Warn("batch report not published", "batch_id", sum.BatchID, "error", rerr)
	}
	return sum, err
}
