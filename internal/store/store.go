// Package store defines the merge-upsert contract between the pipeline and the
// analytical engine that holds the persistent observation table.
//
// Backends register themselves under a kind name from their init functions;
// import internal/store/all to make every built-in backend available to Open.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind  string // registered backend name, e.g. "duckdb"
	DSN   string // backend-specific connection string or file path
	Table string // persistent table name
}

// MergeResult reports what a merge touched.
type MergeResult struct {
	Files int
	Rows  int64 // rows inserted or updated, as reported by the engine
}

// YearSummary is one row of the yearly aggregation query.
type YearSummary struct {
	Year        int     `json:"year"`
	AvgMaxTemp  float64 `json:"avg_max_temp"`
	TotalPrecip float64 `json:"total_precip"`
}

// Gateway merges columnar files into the persistent table.
//
// Merge with no paths is a no-op and never creates the table; otherwise the
// table is created if missing and every row of every file is upserted on the
// natural key. Files are applied in the order given, inside one transaction,
// so for duplicate keys the last file wins; within one file the last row wins.
type Gateway interface {
	Merge(ctx context.Context, paths []string) (MergeResult, error)
	Summary(ctx context.Context) ([]YearSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

// Factory opens a Gateway for a registered kind.
type Factory func(ctx context.Context, cfg Config) (Gateway, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is called from backend
// init functions and replaces any earlier registration.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered backend names in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open validates cfg and opens the backend registered for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Gateway, error) {
	if err := ValidateTableName(cfg.Table); err != nil {
		return nil, err
	}
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}
