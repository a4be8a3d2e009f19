// Package duckdb implements store.Gateway on DuckDB. Columnar files are merged
// with read_parquet, so rows never pass through Go.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" database/sql driver

	"github.com/couchcryptid/weather-data-etl/internal/store"
)

func init() {
	store.Register("duckdb", func(ctx context.Context, cfg store.Config) (store.Gateway, error) {
		return Open(ctx, cfg)
	})
}

// Gateway is a DuckDB-backed store.Gateway.
type Gateway struct {
	db    *sql.DB
	table string
}

// Open opens the DuckDB database file at cfg.DSN, creating its parent
// directory if needed. An empty DSN opens an in-memory database.
func Open(ctx context.Context, cfg store.Config) (*Gateway, error) {
	if cfg.DSN != "" && !strings.HasPrefix(cfg.DSN, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("duckdb: create database dir: %w", err)
		}
	}
	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return &Gateway{db: db, table: cfg.Table}, nil
}

// Merge applies one INSERT ... ON CONFLICT per file, in order, in one
// transaction. DuckDB refuses to update the same key twice in one statement,
// so each file is first reduced to its last row per key.
func (g *Gateway) Merge(ctx context.Context, paths []string) (res store.MergeResult, err error) {
	if len(paths) == 0 {
		return store.MergeResult{}, nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("duckdb: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, store.CreateTableSQL(g.table, store.DialectDuckDB)); err != nil {
		return res, fmt.Errorf("duckdb: create table: %w", err)
	}

	for _, path := range paths {
		r, err := tx.ExecContext(ctx, mergeFileSQL(g.table, path))
		if err != nil {
			return res, fmt.Errorf("duckdb: merge %s: %w", path, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			res.Rows += n
		}
		res.Files++
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("duckdb: commit: %w", err)
	}
	return res, nil
}

// Summary runs the yearly aggregation query.
func (g *Gateway) Summary(ctx context.Context) ([]store.YearSummary, error) {
	return store.QuerySummary(ctx, g.db, g.table)
}

// Ping checks the database connection.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

// Close releases the database handle.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func mergeFileSQL(table, path string) string {
	cols := store.ColumnList()
	key := strings.Join(store.KeyColumns, ", ")
	return fmt.Sprintf(`INSERT INTO %[1]s (%[2]s)
SELECT %[2]s FROM (
    SELECT *, row_number() OVER (PARTITION BY %[3]s ORDER BY file_row_number DESC) AS rn
    FROM read_parquet(%[4]s, file_row_number = true)
) WHERE rn = 1
%[5]s`, table, cols, key, quoteLiteral(path), store.ConflictClause())
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
