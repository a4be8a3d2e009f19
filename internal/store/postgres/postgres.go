// Package postgres implements store.Gateway on PostgreSQL using pgx v5. Each
// file is COPYed into a temporary staging table and upserted from there.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/columnar"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/store"
)

// ordColumn records each staged row's position within its file.
const ordColumn = "__ord"

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (store.Gateway, error) {
		return Open(ctx, cfg)
	})
}

// Gateway is a PostgreSQL-backed store.Gateway.
type Gateway struct {
	pool  *pgxpool.Pool
	table string
	codec columnar.Codec
}

// Open creates a connection pool for cfg.DSN and verifies it.
func Open(ctx context.Context, cfg store.Config) (*Gateway, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Gateway{pool: pool, table: cfg.Table}, nil
}

// Merge stages and upserts each file in order inside one transaction.
func (g *Gateway) Merge(ctx context.Context, paths []string) (res store.MergeResult, err error) {
	if len(paths) == 0 {
		return store.MergeResult{}, nil
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	stage := stageTable(g.table)
	for _, stmt := range []string{
		store.CreateTableSQL(g.table, store.DialectPostgres),
		fmt.Sprintf("CREATE TEMP TABLE IF NOT EXISTS %s (LIKE %s) ON COMMIT DROP", stage, g.table),
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s BIGINT", stage, ordColumn),
	} {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return res, fmt.Errorf("postgres: prepare tables: %w", err)
		}
	}

	copyCols := append(append([]string{}, domain.ColumnNames...), ordColumn)
	for _, path := range paths {
		rows, err := g.codec.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("postgres: %w", err)
		}
		if _, err := tx.Exec(ctx, "TRUNCATE "+stage); err != nil {
			return res, fmt.Errorf("postgres: truncate stage: %w", err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, copyCols, pgx.CopyFromRows(copyRows(rows))); err != nil {
			return res, fmt.Errorf("postgres: copy %s: %w", path, err)
		}
		tag, err := tx.Exec(ctx, upsertFromStageSQL(g.table, stage))
		if err != nil {
			return res, fmt.Errorf("postgres: upsert %s: %w", path, err)
		}
		res.Rows += tag.RowsAffected()
		res.Files++
	}

	if err = tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("postgres: commit: %w", err)
	}
	return res, nil
}

// Summary runs the yearly aggregation query.
func (g *Gateway) Summary(ctx context.Context) ([]store.YearSummary, error) {
	rows, err := g.pool.Query(ctx, store.SummarySQL(g.table))
	if err != nil {
		return nil, fmt.Errorf("postgres: query summary: %w", err)
	}
	defer rows.Close()

	var out []store.YearSummary
	for rows.Next() {
		var s store.YearSummary
		if err := rows.Scan(&s.Year, &s.AvgMaxTemp, &s.TotalPrecip); err != nil {
			return nil, fmt.Errorf("postgres: scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Ping checks the pool.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

// Close closes the pool.
func (g *Gateway) Close() error {
	g.pool.Close()
	return nil
}

func stageTable(table string) string {
	return "stage_" + table
}

// upsertFromStageSQL keeps the last staged row per key, then upserts.
func upsertFromStageSQL(table, stage string) string {
	key := strings.Join(store.KeyColumns, ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT DISTINCT ON (%s) %s FROM %s ORDER BY %s, %s DESC %s",
		table, store.ColumnList(), key, store.ColumnList(), stage, key, ordColumn, store.ConflictClause())
}

func copyRows(rows []domain.Observation) [][]any {
	out := make([][]any, len(rows))
	for i, o := range rows {
		out[i] = []any{
			o.Longitude, o.Latitude,
			int32(o.Day), int32(o.Month), int32(o.Year), int32(o.DayOfYear),
			o.T2MMax, o.T2MMin, o.Precipitation,
			int64(i),
		}
	}
	return out
}
