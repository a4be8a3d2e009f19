package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks input that is not JSON or not shaped like a weather document.
	ErrParse = errors.New("parse error")

	// ErrNoValidRows marks a file in which every candidate row was rejected.
	ErrNoValidRows = errors.New("no valid rows")

	// ErrRowRejected marks a single candidate row that failed a validation rule.
	ErrRowRejected = errors.New("row rejected")

	// ErrMerge marks a failure of the analytical store while merging a batch.
	ErrMerge = errors.New("merge failed")
)

// RowError describes why a candidate row was rejected. An empty Column means
// the row as a whole had the wrong shape.
type RowError struct {
	Column string
	Value  any
	Reason string
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row rejected: %s", e.Reason)
	}
	return fmt.Sprintf("row rejected: %s=%v: %s", e.Column, e.Value, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrRowRejected }
