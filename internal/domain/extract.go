package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// document mirrors the JSON weather document. Location and value entries stay
// untyped so that bad cells become row rejections instead of parse failures.
type document struct {
	Data []series `json:"data"`
}

type series struct {
	Location []any   `json:"location"`
	Value    [][]any `json:"value"`
}

// Extract parses one raw weather document into candidate rows, in document
// order: every value row of the first location, then the second, and so on.
//
// It returns an error wrapping ErrParse when data is not JSON or does not have
// the document shape. Missing "data", "location" or "value" fields produce
// zero rows without error.
func Extract(data []byte) ([]CandidateRow, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}

	var n int
	for _, s := range doc.Data {
		n += len(s.Value)
	}
	rows := make([]CandidateRow, 0, n)
	for _, s := range doc.Data {
		for _, v := range s.Value {
			rows = append(rows, CandidateRow{Location: s.Location, Value: v})
		}
	}
	return rows, nil
}
