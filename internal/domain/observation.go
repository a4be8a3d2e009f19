package domain

import "math"

// Column names in columnar output order.
const (
	ColLongitude     = "longitude"
	ColLatitude      = "latitude"
	ColDay           = "day"
	ColMonth         = "month"
	ColYear          = "year"
	ColDayOfYear     = "day_of_year"
	ColT2MMax        = "t2m_max"
	ColT2MMin        = "t2m_min"
	ColPrecipitation = "precipitation"
)

// ColumnNames is the fixed column set of a candidate row, in positional order.
var ColumnNames = []string{
	ColLongitude, ColLatitude,
	ColDay, ColMonth, ColYear, ColDayOfYear,
	ColT2MMax, ColT2MMin, ColPrecipitation,
}

// LocationColumns are the columns of a document's "location" pair.
var LocationColumns = ColumnNames[:2:2]

// ValueColumns are the columns of one entry of a document's "value" list.
var ValueColumns = ColumnNames[2:len(ColumnNames):len(ColumnNames)]

// CandidateRow is one location joined with one value row, before validation.
// Both slices hold whatever the JSON decoder produced (json.Number, string,
// nil, ...) and are positional against LocationColumns and ValueColumns.
type CandidateRow struct {
	Location []any
	Value    []any
}

// cell returns the entry at position i of ColumnNames.
func (r CandidateRow) cell(i int) any {
	if i < len(LocationColumns) {
		return r.Location[i]
	}
	return r.Value[i-len(LocationColumns)]
}

// Observation is a validated row.
type Observation struct {
	Longitude     float64
	Latitude      float64
	Day           int
	Month         int
	Year          int
	DayOfYear     int
	T2MMax        float64
	T2MMin        float64
	Precipitation float64
}

// Key is the composite natural key of a persisted observation.
type Key struct {
	Day       int
	Month     int
	Year      int
	Longitude float64
	Latitude  float64
}

// Key returns the observation's natural key.
func (o Observation) Key() Key {
	return Key{Day: o.Day, Month: o.Month, Year: o.Year, Longitude: o.Longitude, Latitude: o.Latitude}
}

// Canonical returns o with longitude and latitude rounded to precision
// decimal places. A negative precision leaves coordinates untouched.
func (o Observation) Canonical(precision int) Observation {
	if precision < 0 {
		return o
	}
	o.Longitude = roundTo(o.Longitude, precision)
	o.Latitude = roundTo(o.Latitude, precision)
	return o
}

func roundTo(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		// -0 and 0 must produce the same key.
		return 0
	}
	return r
}
