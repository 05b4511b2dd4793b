// Package sqlite is the SQLite catalog backend, suited to local runs
// where the catalog lives next to the scanned data.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"datamap/internal/analyzer"
	"datamap/internal/catalog"
)

// Repo implements catalog.Repository on SQLite.
//
// Timestamps are stored as RFC3339Nano strings; SQLite has no dedicated
// timestamp type and TEXT affinity round-trips reliably.
type Repo struct {
	db *sql.DB
}

func init() {
	catalog.Register("sqlite", New)
}

func New(ctx context.Context, cfg catalog.Config) (catalog.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS data_files (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	path        TEXT NOT NULL,
	sheet       TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	total_rows  INTEGER NOT NULL,
	header_row  INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	analyzed_at TEXT NOT NULL,
	UNIQUE (path, sheet)
);
CREATE TABLE IF NOT EXISTS data_columns (
	file_id       INTEGER NOT NULL REFERENCES data_files(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	name          TEXT NOT NULL,
	col_type      TEXT NOT NULL,
	sample_values TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_data_columns_file ON data_columns(file_id);
`

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return nil
}

func (r *Repo) SaveResult(ctx context.Context, res *analyzer.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replace any previous profile of this path.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM data_columns WHERE file_id IN (SELECT id FROM data_files WHERE path = ?)`,
		res.Path); err != nil {
		return fmt.Errorf("sqlite: clear columns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM data_files WHERE path = ?`, res.Path); err != nil {
		return fmt.Errorf("sqlite: clear file: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range catalog.Flatten(res) {
		sqlRes, err := tx.ExecContext(ctx,
			`INSERT INTO data_files (path, sheet, kind, size_bytes, total_rows, header_row, error, analyzed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Path, rec.Sheet, rec.Kind, rec.SizeBytes, rec.TotalRows, rec.HeaderRow, rec.Err, now)
		if err != nil {
			return fmt.Errorf("sqlite: insert file %s: %w", rec.Path, err)
		}
		fileID, err := sqlRes.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: file id: %w", err)
		}

		for _, col := range rec.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO data_columns (file_id, position, name, col_type, sample_values)
				 VALUES (?, ?, ?, ?, ?)`,
				fileID, col.Position, col.Name, col.Type, col.Samples); err != nil {
				return fmt.Errorf("sqlite: insert column %s: %w", col.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

var _ catalog.Repository = (*Repo)(nil)
