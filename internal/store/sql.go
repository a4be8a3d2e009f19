package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
)

// KeyColumns is the composite natural key of the persistent table.
var KeyColumns = []string{domain.ColDay, domain.ColMonth, domain.ColYear, domain.ColLongitude, domain.ColLatitude}

// UpdateColumns are overwritten with incoming values when a key already exists.
var UpdateColumns = []string{domain.ColT2MMax, domain.ColT2MMin, domain.ColPrecipitation, domain.ColDayOfYear}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName rejects anything that is not a plain SQL identifier.
// Table names are interpolated into statements, so this is the only guard.
func ValidateTableName(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("store: invalid table name %q", name)
	}
	return nil
}

// Dialect holds the engine-specific pieces of the shared statements.
type Dialect struct {
	Double  string // floating point column type
	Integer string // integer column type
}

var (
	// DuckDB and SQLite both accept DOUBLE/INTEGER.
	DialectDuckDB   = Dialect{Double: "DOUBLE", Integer: "INTEGER"}
	DialectSQLite   = Dialect{Double: "DOUBLE", Integer: "INTEGER"}
	DialectPostgres = Dialect{Double: "DOUBLE PRECISION", Integer: "INTEGER"}
)

// CreateTableSQL returns the idempotent DDL for the persistent table.
func CreateTableSQL(table string, d Dialect) string {
	types := map[string]string{
		domain.ColLongitude:     d.Double,
		domain.ColLatitude:      d.Double,
		domain.ColDay:           d.Integer,
		domain.ColMonth:         d.Integer,
		domain.ColYear:          d.Integer,
		domain.ColDayOfYear:     d.Integer,
		domain.ColT2MMax:        d.Double,
		domain.ColT2MMin:        d.Double,
		domain.ColPrecipitation: d.Double,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	for _, col := range domain.ColumnNames {
		fmt.Fprintf(&b, "    %s %s,\n", col, types[col])
	}
	fmt.Fprintf(&b, "    PRIMARY KEY (%s)\n)", strings.Join(KeyColumns, ", "))
	return b.String()
}

// ColumnList returns the table columns joined for SELECT and INSERT lists.
func ColumnList() string {
	return strings.Join(domain.ColumnNames, ", ")
}

// ConflictClause returns the upsert tail shared by every backend.
func ConflictClause() string {
	updates := make([]string, len(UpdateColumns))
	for i, col := range UpdateColumns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(KeyColumns, ", "), strings.Join(updates, ", "))
}

// SummarySQL returns the yearly aggregation query consumed by charts.
func SummarySQL(table string) string {
	return fmt.Sprintf(
		"SELECT year, AVG(t2m_max) AS avg_max_temp, SUM(precipitation) AS total_precip FROM %s GROUP BY year ORDER BY year",
		table)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// QuerySummary runs SummarySQL through a database/sql handle.
func QuerySummary(ctx context.Context, db Querier, table string) ([]YearSummary, error) {
	rows, err := db.QueryContext(ctx, SummarySQL(table))
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []YearSummary
	for rows.Next() {
		var s YearSummary
		if err := rows.Scan(&s.Year, &s.AvgMaxTemp, &s.TotalPrecip); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
