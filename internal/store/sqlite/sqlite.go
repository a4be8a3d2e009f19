// Package sqlite implements store.Gateway on an embedded SQLite database.
// SQLite cannot read Parquet, so rows are decoded in Go and upserted through a
// prepared statement inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/couchcryptid/weather-data-etl/internal/adapter/columnar"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/store"
)

func init() {
	store.Register("sqlite", func(ctx context.Context, cfg store.Config) (store.Gateway, error) {
		return Open(ctx, cfg)
	})
}

// Gateway is a SQLite-backed store.Gateway.
type Gateway struct {
	db    *sql.DB // single writer connection
	read  *sql.DB // Ping and Summary; same as db for in-memory databases
	table string
	codec columnar.Codec
}

// Open connects to the SQLite database named by cfg.DSN, e.g.
// "database/weather_data.db" or "file:weather.db?_pragma=busy_timeout(5000)".
//
// File databases are switched to WAL mode and get a second handle for Ping
// and Summary, so readiness checks and summaries do not wait for a merge
// transaction. In-memory databases live on one connection and have no such
// separation.
func Open(ctx context.Context, cfg store.Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := openHandle(pingCtx, cfg.DSN, 1)
	if err != nil {
		return nil, err
	}
	g := &Gateway{db: db, read: db, table: cfg.Table}
	if inMemory(cfg.DSN) {
		return g, nil
	}

	if _, err := db.ExecContext(pingCtx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable wal: %w", err)
	}
	if g.read, err = openHandle(pingCtx, cfg.DSN, 2); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func openHandle(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return db, nil
}

func inMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Merge upserts every row of every file, in order, in one transaction.
func (g *Gateway) Merge(ctx context.Context, paths []string) (res store.MergeResult, err error) {
	if len(paths) == 0 {
		return store.MergeResult{}, nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, store.CreateTableSQL(g.table, store.DialectSQLite)); err != nil {
		return res, fmt.Errorf("sqlite: create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL(g.table))
	if err != nil {
		return res, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, path := range paths {
		rows, err := g.codec.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("sqlite: %w", err)
		}
		for _, o := range rows {
			if _, err := stmt.ExecContext(ctx, args(o)...); err != nil {
				return res, fmt.Errorf("sqlite: upsert from %s: %w", path, err)
			}
			res.Rows++
		}
		res.Files++
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("sqlite: commit: %w", err)
	}
	return res, nil
}

// Summary runs the yearly aggregation query.
func (g *Gateway) Summary(ctx context.Context) ([]store.YearSummary, error) {
	return store.QuerySummary(ctx, g.read, g.table)
}

// Ping checks the database connection.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.read.PingContext(ctx)
}

// Close releases the database handles.
func (g *Gateway) Close() error {
	var err error
	if g.read != g.db {
		err = g.read.Close()
	}
	return errors.Join(err, g.db.Close())
}

func upsertSQL(table string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domain.ColumnNames)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		table, store.ColumnList(), placeholders, store.ConflictClause())
}

// args returns o's values in domain.ColumnNames order.
func args(o domain.Observation) []any {
	return []any{
		o.Longitude, o.Latitude,
		o.Day, o.Month, o.Year, o.DayOfYear,
		o.T2MMax, o.T2MMin, o.Precipitation,
	}
}
