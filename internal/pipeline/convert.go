package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/columnar"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
)

// ConversionOutcome classifies what happened to one input file.
type ConversionOutcome string

const (
	// Converted means a columnar output was written for the file.
	Converted ConversionOutcome = "converted"
	// Rejected means the file was quarantined.
	Rejected ConversionOutcome = "rejected"
	// Failed means the file was left in the input directory for a later batch.
	Failed ConversionOutcome = "failed"
)

// ColumnarWriter persists validated rows as one columnar file.
type ColumnarWriter interface {
	WriteFile(path string, rows []domain.Observation) error
}

// Conversion is the result of converting one input file.
type Conversion struct {
	Input    string
	Output   string // set when Outcome is Converted
	Outcome  ConversionOutcome
	Accepted int
	Rejected int
	// RejectedByColumn counts dropped rows by their first failing column.
	RejectedByColumn map[string]int
	Err              error
}

// QuarantineReason returns the metrics label for a rejected file.
func (c Conversion) QuarantineReason() string {
	switch {
	case errors.Is(c.Err, domain.ErrParse):
		return "parse"
	case errors.Is(c.Err, domain.ErrNoValidRows):
		return "no_valid_rows"
	default:
		return "other"
	}
}

// Evaluation is the in-memory result of extracting and validating one document.
type Evaluation struct {
	Rows             []domain.Observation
	Candidates       int
	RejectedByColumn map[string]int
	// Err is wrapped ErrParse or ErrNoValidRows when the file must be quarantined.
	Err error
}

// Rejected returns how many candidate rows were dropped.
func (e Evaluation) Rejected() int {
	return e.Candidates - len(e.Rows)
}

// Evaluate extracts and validates every row of data. Accepted rows keep their
// document order and have their coordinates rounded to precision decimals.
// onReject, if not nil, is called for each dropped row.
func Evaluate(v *domain.Validator, data []byte, precision int, onReject func(index int, err error)) Evaluation {
	candidates, err := domain.Extract(data)
	if err != nil {
		return Evaluation{Err: err}
	}

	ev := Evaluation{
		Candidates:       len(candidates),
		Rows:             make([]domain.Observation, 0, len(candidates)),
		RejectedByColumn: make(map[string]int),
	}
	for i, row := range candidates {
		obs, err := v.Validate(row)
		if err != nil {
			ev.RejectedByColumn[rejectedColumn(err)]++
			if onReject != nil {
				onReject(i, err)
			}
			continue
		}
		ev.Rows = append(ev.Rows, obs.Canonical(precision))
	}
	if len(ev.Rows) == 0 {
		ev.Err = fmt.Errorf("%w: %d candidate rows", domain.ErrNoValidRows, len(candidates))
	}
	return ev
}

// rejectedColumn returns the metrics label for a row error. Shape errors have
// no column and are reported as "row".
func rejectedColumn(err error) string {
	var rowErr *domain.RowError
	if errors.As(err, &rowErr) && rowErr.Column != "" {
		return rowErr.Column
	}
	return "row"
}

// ConverterConfig holds the directories and rules one Converter works with.
type ConverterConfig struct {
	OutputDir      string
	QuarantineDir  string
	Bounds         domain.Bounds
	CoordPrecision int
}

// Converter turns one input file into one columnar output file, or
// quarantines it. It holds no mutable state and is safe for concurrent use on
// distinct inputs.
type Converter struct {
	cfg       ConverterConfig
	validator *domain.Validator
	writer    ColumnarWriter
	mover     *Mover
	logger    *slog.Logger
}

// NewConverter creates a Converter.
func NewConverter(cfg ConverterConfig, w ColumnarWriter, mover *Mover, logger *slog.Logger) *Converter {
	return &Converter{
		cfg:       cfg,
		validator: domain.NewValidator(cfg.Bounds),
		writer:    w,
		mover:     mover,
		logger:    logger,
	}
}

// OutputPath returns the columnar path for input: same stem, columnar extension.
func (c *Converter) OutputPath(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(c.cfg.OutputDir, stem+columnar.Extension)
}

// Convert processes one input file.
func (c *Converter) Convert(ctx context.Context, input string) Conversion {
	log := c.logger.With("file", filepath.Base(input))
	res := Conversion{Input: input}

	if err := ctx.Err(); err != nil {
		res.Outcome, res.Err = Failed, err
		return res
	}

	data, err := os.ReadFile(input)
	if err != nil {
		log.Error("read input failed", "error", err)
		res.Outcome, res.Err = Failed, fmt.Errorf("read input: %w", err)
		return res
	}

	ev := Evaluate(c.validator, data, c.cfg.CoordPrecision, func(i int, err error) {
		log.Debug("row rejected", "row", i, "error", err)
	})
	res.Accepted = len(ev.Rows)
	res.Rejected = ev.Rejected()
	res.RejectedByColumn = ev.RejectedByColumn

	if ev.Err != nil {
		res.Outcome, res.Err = Rejected, ev.Err
		dst, err := c.mover.Move(input, c.cfg.QuarantineDir)
		if err != nil {
			log.Error("quarantine failed", "error", err)
			res.Err = errors.Join(ev.Err, fmt.Errorf("quarantine: %w", err))
			return res
		}
		log.Warn("file quarantined", "reason", res.QuarantineReason(), "destination", dst, "error", ev.Err)
		return res
	}

	output := c.OutputPath(input)
	if err := c.writer.WriteFile(output, ev.Rows); err != nil {
		log.Error("write columnar output failed", "output", output, "error", err)
		res.Outcome, res.Err = Failed, fmt.Errorf("write output: %w", err)
		return res
	}

	res.Outcome, res.Output = Converted, output
	log.Debug("file converted", "output", output, "accepted", res.Accepted, "rejected", res.Rejected)
	return res
}
