package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() CandidateRow {
	return CandidateRow{
		Location: []any{json.Number("10.0"), json.Number("20.0")},
		Value: []any{
			json.Number("15"), json.Number("6"), json.Number("2021"), json.Number("166"),
			json.Number("30.5"), json.Number("18.2"), json.Number("0.0"),
		},
	}
}

func withValue(col string, v any) CandidateRow {
	row := validRow()
	for i, name := range LocationColumns {
		if name == col {
			row.Location[i] = v
		}
	}
	for i, name := range ValueColumns {
		if name == col {
			row.Value[i] = v
		}
	}
	return row
}

func TestValidator_AcceptsValidRow(t *testing.T) {
	obs, err := NewValidator(DefaultBounds()).Validate(validRow())
	require.NoError(t, err)
	assert.Equal(t, Observation{
		Longitude: 10, Latitude: 20,
		Day: 15, Month: 6, Year: 2021, DayOfYear: 166,
		T2MMax: 30.5, T2MMin: 18.2, Precipitation: 0,
	}, obs)
}

func TestValidator_RejectsEachViolation(t *testing.T) {
	tests := []struct {
		column string
		value  any
	}{
		{ColLongitude, json.Number("180.5")},
		{ColLongitude, json.Number("-181")},
		{ColLatitude, json.Number("91")},
		{ColLatitude, json.Number("200")},
		{ColDay, json.Number("0")},
		{ColDay, json.Number("32")},
		{ColDay, json.Number("1.5")},
		{ColMonth, json.Number("13")},
		{ColMonth, json.Number("0")},
		{ColYear, json.Number("1899")},
		{ColYear, json.Number("2101")},
		{ColDayOfYear, json.Number("367")},
		{ColDayOfYear, json.Number("0")},
		{ColT2MMax, "hot"},
		{ColT2MMin, nil},
		{ColPrecipitation, true},
	}

	v := NewValidator(DefaultBounds())
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			_, err := v.Validate(withValue(tt.column, tt.value))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRowRejected)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.column, rowErr.Column)
		})
	}
}

func TestValidator_BoundaryValuesAccepted(t *testing.T) {
	v := NewValidator(DefaultBounds())
	for col, val := range map[string]any{
		ColLongitude: json.Number("-180"),
		ColLatitude:  json.Number("90"),
		ColDay:       json.Number("31"),
		ColMonth:     json.Number("1"),
		ColYear:      json.Number("2100"),
		ColDayOfYear: json.Number("366"),
		ColT2MMax:    json.Number("-1e3"),
	} {
		_, err := v.Validate(withValue(col, val))
		assert.NoError(t, err, col)
	}
}

func TestValidator_IntegralRealAccepted(t *testing.T) {
	obs, err := NewValidator(DefaultBounds()).Validate(withValue(ColDay, json.Number("15.0")))
	require.NoError(t, err)
	assert.Equal(t, 15, obs.Day)
}

func TestValidator_ConfigurableYearBounds(t *testing.T) {
	v := NewValidator(Bounds{YearMin: 1945, YearMax: 2025})

	_, err := v.Validate(withValue(ColYear, json.Number("2030")))
	assert.ErrorIs(t, err, ErrRowRejected)

	_, err = v.Validate(withValue(ColYear, json.Number("1945")))
	assert.NoError(t, err)
}

func TestValidator_RejectsWrongShape(t *testing.T) {
	v := NewValidator(DefaultBounds())

	short := validRow()
	short.Value = short.Value[:6]
	_, err := v.Validate(short)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Empty(t, rowErr.Column)
	assert.Contains(t, rowErr.Error(), "value row has 6 entries, want 7")

	long := validRow()
	long.Value = append(long.Value, json.Number("1"))
	_, err = v.Validate(long)
	assert.ErrorIs(t, err, ErrRowRejected)
}

func TestValidator_RejectsMisalignedLocation(t *testing.T) {
	v := NewValidator(DefaultBounds())
	n := func(s string) any { return json.Number(s) }

	tests := map[string]CandidateRow{
		// Nine cells in total, but the latitude sits in the value row.
		"one coordinate": {
			Location: []any{n("10.0")},
			Value:    []any{n("20.0"), n("15"), n("6"), n("2021"), n("166"), n("30.5"), n("18.2"), n("0.0")},
		},
		"three coordinates": {
			Location: []any{n("10.0"), n("20.0"), n("15")},
			Value:    []any{n("6"), n("2021"), n("166"), n("30.5"), n("18.2"), n("0.0")},
		},
		"no coordinates": {
			Location: nil,
			Value:    validRow().Value,
		},
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			obs, err := v.Validate(row)
			assert.Zero(t, obs)
			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Empty(t, rowErr.Column)
			assert.ErrorIs(t, err, ErrRowRejected)
		})
	}
}

func TestValidator_RuleTableCoversEveryColumn(t *testing.T) {
	rules := NewValidator(DefaultBounds()).Rules()
	cols := make([]string, 0, len(rules))
	for _, r := range rules {
		cols = append(cols, r.Column)
	}
	assert.ElementsMatch(t, ColumnNames, cols)
}

func TestObservation_Canonical(t *testing.T) {
	obs := Observation{Longitude: 10.0000004, Latitude: -0.0000001}
	got := obs.Canonical(6)
	assert.Equal(t, 10.0, got.Longitude)
	assert.Equal(t, 0.0, got.Latitude)

	same := Observation{Longitude: 10.0}.Canonical(6)
	assert.Equal(t, same.Key().Longitude, got.Key().Longitude)

	assert.Equal(t, obs, obs.Canonical(-1))
}

func TestColumnSubsetsDoNotAliasColumnNames(t *testing.T) {
	before := append([]string(nil), ColumnNames...)

	_ = append(ValueColumns, "wind")
	_ = append(LocationColumns, "elevation")

	assert.Equal(t, before, ColumnNames)
	assert.Equal(t, ColumnNames, append(append([]string(nil), LocationColumns...), ValueColumns...))
}
