package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// uploadDocument is the strict top-level shape accepted at the upload
// boundary. It is stricter than Extract: it rejects documents whose cells are
// not numbers at all, before they ever reach the pipeline.
type uploadDocument struct {
	Duration *float64       `json:"duration"`
	Data     []uploadSeries `json:"data"`
}

type uploadSeries struct {
	Header   []string    `json:"header"`
	Location []float64   `json:"location"`
	Value    [][]float64 `json:"value"`
}

// CheckDocumentShape reports whether data is a weather document that the
// pipeline can consume. Range rules are not applied here; they belong to the
// Validator.
func CheckDocumentShape(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var doc uploadDocument
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	if doc.Data == nil {
		return fmt.Errorf("%w: missing \"data\" list", ErrParse)
	}
	for i, s := range doc.Data {
		if s.Location == nil {
			return fmt.Errorf("%w: data[%d]: missing \"location\"", ErrParse, i)
		}
		if len(s.Location) != len(LocationColumns) {
			return fmt.Errorf("%w: data[%d]: location has %d entries, want %d",
				ErrParse, i, len(s.Location), len(LocationColumns))
		}
		if s.Value == nil {
			return fmt.Errorf("%w: data[%d]: missing \"value\"", ErrParse, i)
		}
		for j, row := range s.Value {
			if len(row) != len(ValueColumns) {
				return fmt.Errorf("%w: data[%d].value[%d]: %d entries, want %d",
					ErrParse, i, j, len(row), len(ValueColumns))
			}
		}
		for _, h := range s.Header {
			if !slices.Contains(ValueColumns, h) {
				return fmt.Errorf("%w: data[%d]: unknown header %q", ErrParse, i, h)
			}
		}
	}
	return nil
}
