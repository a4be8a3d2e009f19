// Package domain models gridded daily weather observations delivered as JSON
// batch files.
//
// # Document Shape
//
// Each input file holds one document:
//
//	{
//	  "data": [
//	    {
//	      "location": [lon, lat],
//	      "value": [[day, month, year, day_of_year, t2m_max, t2m_min, precipitation], ...]
//	    }
//	  ]
//	}
//
// Upstream producers may also include a "header" list naming the value columns
// and a "duration" (seconds spent producing the document). Neither is needed
// for extraction because the value column order is fixed.
//
// # Candidate Rows
//
// [Extract] pairs every location with each of its value rows as a
// [CandidateRow]. Extraction only reshapes; a location without two coordinates
// or a value row without seven entries still yields a row, which the
// [Validator] later rejects on shape. The two parts are checked separately, so
// a third coordinate never shifts into the day column.
//
// # Validation
//
// [Validator] evaluates a fixed table of [Rule] values, one per column:
//
//	longitude      -180 ≤ v ≤ 180
//	latitude        -90 ≤ v ≤ 90
//	day               1 ≤ v ≤ 31    (integral)
//	month             1 ≤ v ≤ 12    (integral)
//	year     YearMin ≤ v ≤ YearMax  (integral, default 1900–2100)
//	day_of_year       1 ≤ v ≤ 366   (integral)
//	t2m_max, t2m_min, precipitation: any finite number
//
// Integral columns accept integer-valued reals such as 15.0.
//
// # Natural Key
//
// Observations are identified by (day, month, year, longitude, latitude).
// Coordinates are rounded to a fixed number of decimals by [Canonical] before
// they are used as part of that key, so 10.0000001 and 10.0 collapse to the
// same row at the default precision of 6.
package domain
