package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"
)

// FileConverter converts one input file. Implementations must be safe for
// concurrent use on distinct paths.
type FileConverter interface {
	Convert(ctx context.Context, input string) Conversion
}

// Scheduler discovers a batch of input files and converts them on a bounded
// worker pool.
type Scheduler struct {
	inputDir  string
	workers   int
	converter FileConverter
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler. workers below 1 is treated as 1.
func NewScheduler(inputDir string, workers int, c FileConverter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		inputDir:  inputDir,
		workers:   max(workers, 1),
		converter: c,
		logger:    logger,
	}
}

// Discover returns the regular *.json files in the input directory in
// lexical order. A missing directory yields no files.
func (s *Scheduler) Discover() ([]string, error) {
	entries, err := os.ReadDir(s.inputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(s.inputDir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// ConvertAll converts every path and waits for all of them. Results are in
// the order of paths regardless of completion order. One file's failure,
// including a panic, never affects another.
func (s *Scheduler) ConvertAll(ctx context.Context, paths []string) []Conversion {
	results := make([]Conversion, len(paths))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = s.convertOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scheduler) convertOne(ctx context.Context, path string) (res Conversion) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("conversion panicked", "file", filepath.Base(path), "panic", r)
			res = Conversion{Input: path, Outcome: Failed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Conversion{Input: path, Outcome: Failed, Err: err}
	}
	return s.converter.Convert(ctx, path)
}
