// Package columnar stores validated observations as Parquet files, one file per
// converted input, using the column names of the persistent table.
package columnar

import (
	"errors"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
)

// Extension is the file extension of columnar output files.
const Extension = ".parquet"

// parallelism is the number of goroutines parquet-go uses per file.
const parallelism = 1

// record is the on-disk row layout. Column order and names match the
// persistent table so engines can select columns by name.
type record struct {
	Longitude     float64 `parquet:"name=longitude, type=DOUBLE"`
	Latitude      float64 `parquet:"name=latitude, type=DOUBLE"`
	Day           int32   `parquet:"name=day, type=INT32"`
	Month         int32   `parquet:"name=month, type=INT32"`
	Year          int32   `parquet:"name=year, type=INT32"`
	DayOfYear     int32   `parquet:"name=day_of_year, type=INT32"`
	T2MMax        float64 `parquet:"name=t2m_max, type=DOUBLE"`
	T2MMin        float64 `parquet:"name=t2m_min, type=DOUBLE"`
	Precipitation float64 `parquet:"name=precipitation, type=DOUBLE"`
}

// Codec writes and reads observation files. The zero value is ready to use.
type Codec struct{}

// WriteFile writes rows, in order, to path. The file is written under a
// temporary name and renamed into place, so readers never observe a partial
// file.
func (Codec) WriteFile(path string, rows []domain.Observation) (err error) {
	tmp := path + ".tmp"
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create parquet file %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(record), parallelism)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("init parquet writer %s: %w", tmp, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(toRecord(rows[i])); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}

	var closeErr error
	if err := pw.WriteStop(); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("stop writer %s: %w", tmp, err))
	}
	if err := fw.Close(); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("close file %s: %w", tmp, err))
	}
	if closeErr != nil {
		return closeErr
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ReadFile returns every row of a file written by WriteFile, in file order.
func (Codec) ReadFile(path string) ([]domain.Observation, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(record), parallelism)
	if err != nil {
		return nil, fmt.Errorf("init parquet reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	recs := make([]record, n)
	if n > 0 {
		if err := pr.Read(&recs); err != nil {
			return nil, fmt.Errorf("read parquet rows %s: %w", path, err)
		}
	}

	rows := make([]domain.Observation, len(recs))
	for i := range recs {
		rows[i] = fromRecord(recs[i])
	}
	return rows, nil
}

func toRecord(o domain.Observation) record {
	return record{
		Longitude:     o.Longitude,
		Latitude:      o.Latitude,
		Day:           int32(o.Day),
		Month:         int32(o.Month),
		Year:          int32(o.Year),
		DayOfYear:     int32(o.DayOfYear),
		T2MMax:        o.T2MMax,
		T2MMin:        o.T2MMin,
		Precipitation: o.Precipitation,
	}
}

func fromRecord(r record) domain.Observation {
	return domain.Observation{
		Longitude:     r.Longitude,
		Latitude:      r.Latitude,
		Day:           int(r.Day),
		Month:         int(r.Month),
		Year:          int(r.Year),
		DayOfYear:     int(r.DayOfYear),
		T2MMax:        r.T2MMax,
		T2MMin:        r.T2MMin,
		Precipitation: r.Precipitation,
	}
}
