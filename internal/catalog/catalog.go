// Package catalog persists analysis results into a relational data
// catalog so profiles can be queried and diffed across scans.
//
// Backends self-register from their package init(), mirroring
// database/sql driver registration: importing a backend package makes
// its kind available to New.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"datamap/internal/analyzer"
)

// Config selects and configures a catalog backend.
//
// Kind must match a registered backend ("sqlite", "postgres", "mssql").
// DSN is passed through to the backend factory; validation is
// backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the backend-agnostic persistence surface. Each backend
// implements the semantics its engine supports (Postgres RETURNING,
// SQLite last-insert-id, SQL Server OUTPUT).
type Repository interface {
	// EnsureSchema creates the catalog tables if they do not exist.
	// Safe to call on every startup.
	EnsureSchema(ctx context.Context) error

	// SaveResult upserts one analysis result. Re-profiling the same
	// path replaces its previous rows; other paths are untouched.
	SaveResult(ctx context.Context, res *analyzer.Result) error

	// Close releases backend resources. Call once at shutdown.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register makes a backend available under kind. Called from backend
// package init() functions.
//
// Panics on empty kind, nil factory, or duplicate registration; backend
// selection must never be ambiguous.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("catalog: Register called with empty kind")
	}
	if f == nil {
		panic("catalog: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("catalog: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository for cfg.Kind using the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("catalog: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("catalog: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// FileRecord is the flattened per-file (or per-sheet) form stored in the
// data_files table. Workbooks flatten to one record per sheet.
type FileRecord struct {
	Path      string
	Kind      string
	Sheet     string
	SizeBytes int64
	TotalRows int64
	HeaderRow int
	Err       string
	Columns   []ColumnRecord
}

// ColumnRecord is one profiled column, stored in data_columns. Samples
// are flattened to a "; "-joined string.
type ColumnRecord struct {
	Position int
	Name     string
	Type     string
	Samples  string
}

// Flatten converts a result into storable records. A workbook yields one
// record per sheet; everything else yields exactly one record. Broken
// files yield a columnless record carrying the error.
func Flatten(res *analyzer.Result) []FileRecord {
	if len(res.Sheets) > 0 {
		out := make([]FileRecord, 0, len(res.Sheets))
		for _, sheet := range res.Sheets {
			out = append(out, FileRecord{
				Path:      res.Path,
				Kind:      string(res.Kind),
				Sheet:     sheet.Name,
				SizeBytes: res.SizeBytes,
				TotalRows: sheet.TotalRows,
				HeaderRow: sheet.HeaderRow,
				Err:       res.Err,
				Columns:   flattenColumns(sheet.Columns, sheet.Types, sheet.Samples),
			})
		}
		return out
	}

	return []FileRecord{{
		Path:      res.Path,
		Kind:      string(res.Kind),
		SizeBytes: res.SizeBytes,
		TotalRows: res.TotalRows,
		HeaderRow: res.HeaderRow,
		Err:       res.Err,
		Columns:   flattenColumns(res.Columns, res.Types, res.Samples),
	}}
}

func flattenColumns(columns []string, types map[string]string, samples map[string][]string) []ColumnRecord {
	out := make([]ColumnRecord, 0, len(columns))
	for i, col := range columns {
		out = append(out, ColumnRecord{
			Position: i,
			Name:     col,
			Type:     types[col],
			Samples:  strings.Join(samples[col], "; "),
		})
	}
	return out
}
