package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Bounds holds the configurable validation limits.
type Bounds struct {
	YearMin int
	YearMax int
}

// DefaultBounds returns the default year range 1900–2100.
func DefaultBounds() Bounds {
	return Bounds{YearMin: 1900, YearMax: 2100}
}

// Rule checks the value of one named column.
type Rule struct {
	Column string
	Check  func(v any) error
}

// Validator applies the column rule table to candidate rows. It holds no
// per-row state and is safe for concurrent use.
type Validator struct {
	rules []Rule
	index map[string]int
}

// NewValidator builds the rule table for the given bounds.
func NewValidator(b Bounds) *Validator {
	rules := []Rule{
		{Column: ColLongitude, Check: realBetween(-180, 180)},
		{Column: ColLatitude, Check: realBetween(-90, 90)},
		{Column: ColDay, Check: integerBetween(1, 31)},
		{Column: ColMonth, Check: integerBetween(1, 12)},
		{Column: ColYear, Check: integerBetween(b.YearMin, b.YearMax)},
		{Column: ColDayOfYear, Check: integerBetween(1, 366)},
		{Column: ColT2MMax, Check: anyReal},
		{Column: ColT2MMin, Check: anyReal},
		{Column: ColPrecipitation, Check: anyReal},
	}
	index := make(map[string]int, len(ColumnNames))
	for i, name := range ColumnNames {
		index[name] = i
	}
	return &Validator{rules: rules, index: index}
}

// Rules returns the rule table in evaluation order.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

// Validate checks a candidate row against every rule. On success it returns
// the typed observation; otherwise a *RowError for the first failing rule.
func (v *Validator) Validate(row CandidateRow) (Observation, error) {
	if len(row.Location) != len(LocationColumns) {
		return Observation{}, &RowError{
			Reason: fmt.Sprintf("location has %d entries, want %d", len(row.Location), len(LocationColumns)),
		}
	}
	if len(row.Value) != len(ValueColumns) {
		return Observation{}, &RowError{
			Reason: fmt.Sprintf("value row has %d entries, want %d", len(row.Value), len(ValueColumns)),
		}
	}
	for _, r := range v.rules {
		val := row.cell(v.index[r.Column])
		if err := r.Check(val); err != nil {
			return Observation{}, &RowError{Column: r.Column, Value: val, Reason: err.Error()}
		}
	}

	f := func(col string) float64 {
		n, _ := toFloat(row.cell(v.index[col]))
		return n
	}
	return Observation{
		Longitude:     f(ColLongitude),
		Latitude:      f(ColLatitude),
		Day:           int(f(ColDay)),
		Month:         int(f(ColMonth)),
		Year:          int(f(ColYear)),
		DayOfYear:     int(f(ColDayOfYear)),
		T2MMax:        f(ColT2MMax),
		T2MMin:        f(ColT2MMin),
		Precipitation: f(ColPrecipitation),
	}, nil
}

func anyReal(v any) error {
	if _, ok := toFloat(v); !ok {
		return fmt.Errorf("not a number")
	}
	return nil
}

func realBetween(lo, hi float64) func(any) error {
	return func(v any) error {
		n, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("not a number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("out of range [%g, %g]", lo, hi)
		}
		return nil
	}
}

func integerBetween(lo, hi int) func(any) error {
	return func(v any) error {
		n, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("not a number")
		}
		if n != math.Trunc(n) {
			return fmt.Errorf("not an integer")
		}
		if n < float64(lo) || n > float64(hi) {
			return fmt.Errorf("out of range [%d, %d]", lo, hi)
		}
		return nil
	}
}

// toFloat accepts the numeric representations produced by the JSON decoder
// (json.Number) and by callers building rows directly.
func toFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
