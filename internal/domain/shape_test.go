package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDocumentShape(t *testing.T) {
	valid := []string{
		`{"data": []}`,
		`{"duration": 1.2, "data": [{"header": ["day","month","year","day_of_year","t2m_max","t2m_min","precipitation"], "location": [10, 20], "value": [[15,6,2021,166,30.5,18.2,0.0]]}]}`,
		`{"data": [{"location": [10, 20], "value": []}]}`,
	}
	for _, doc := range valid {
		assert.NoError(t, CheckDocumentShape([]byte(doc)), doc)
	}

	invalid := []string{
		`not json`,
		`{}`,
		`{"data": [{"value": []}]}`,
		`{"data": [{"location": [10, 20]}]}`,
		`{"data": [{"location": ["a", 20], "value": []}]}`,
		`{"data": [{"location": [10, 20], "value": [["x"]]}]}`,
		`{"data": [{"header": ["wind"], "location": [10, 20], "value": []}]}`,
		`{"data": []} trailing`,
		`{"data": [{"location": [], "value": []}]}`,
		`{"data": [{"location": [10], "value": [[20,15,6,2021,166,30.5,18.2,0.0]]}]}`,
		`{"data": [{"location": [1, 2, 3], "value": [[1]]}]}`,
		`{"data": [{"location": [10, 20], "value": [[15,6,2021,166,30.5,18.2]]}]}`,
		`{"data": [{"location": [10, 20], "value": [[15,6,2021,166,30.5,18.2,0.0], [15,6,2021,166,30.5,18.2,0.0,1]]}]}`,
	}
	for _, doc := range invalid {
		err := CheckDocumentShape([]byte(doc))
		assert.ErrorIs(t, err, ErrParse, doc)
	}
}
