package pipeline

import (
	"log/slog"
	"path/filepath"
)

// FinalizeResult counts what the Finalizer managed to clean up.
type FinalizeResult struct {
	Archived int
	Removed  int
	Errors   int
}

// Finalizer archives consumed inputs and deletes intermediate outputs after a
// successful merge.
type Finalizer struct {
	archiveDir string
	mover      *Mover
	logger     *slog.Logger
}

// NewFinalizer creates a Finalizer that archives into archiveDir.
func NewFinalizer(archiveDir string, mover *Mover, logger *slog.Logger) *Finalizer {
	return &Finalizer{archiveDir: archiveDir, mover: mover, logger: logger}
}

// Finalize handles every Converted result. Failures are logged per file and
// never stop the remaining files.
func (f *Finalizer) Finalize(conversions []Conversion) FinalizeResult {
	var res FinalizeResult
	for _, c := range conversions {
		if c.Outcome != Converted {
			continue
		}
		log := f.logger.With("file", filepath.Base(c.Input))

		if dst, err := f.mover.Move(c.Input, f.archiveDir); err != nil {
			log.Error("archive input failed", "error", err)
			res.Errors++
		} else if dst != "" {
			res.Archived++
		}

		if err := f.mover.Remove(c.Output); err != nil {
			log.Error("remove intermediate failed", "output", c.Output, "error", err)
			res.Errors++
		} else {
			res.Removed++
		}
	}
	return res
}
