// Package postgres is the PostgreSQL catalog backend, for shared
// catalogs queried by multiple teams.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"datamap/internal/analyzer"
	"datamap/internal/catalog"
)

// Repo implements catalog.Repository on PostgreSQL via pgxpool.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	catalog.Register("postgres", New)
}

func New(ctx context.Context, cfg catalog.Config) (catalog.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS data_files (
	id          BIGSERIAL PRIMARY KEY,
	path        TEXT NOT NULL,
	sheet       TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL,
	size_bytes  BIGINT NOT NULL,
	total_rows  BIGINT NOT NULL,
	header_row  INT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	analyzed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (path, sheet)
);
CREATE TABLE IF NOT EXISTS data_columns (
	file_id       BIGINT NOT NULL REFERENCES data_files(id) ON DELETE CASCADE,
	position      INT NOT NULL,
	name          TEXT NOT NULL,
	col_type      TEXT NOT NULL,
	sample_values TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_data_columns_file ON data_columns(file_id);
`

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *Repo) SaveResult(ctx context.Context, res *analyzer.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// data_columns rows cascade with the file rows.
	if _, err := tx.Exec(ctx, `DELETE FROM data_files WHERE path = $1`, res.Path); err != nil {
		return fmt.Errorf("postgres: clear file: %w", err)
	}

	for _, rec := range catalog.Flatten(res) {
		var fileID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO data_files (path, sheet, kind, size_bytes, total_rows, header_row, error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			rec.Path, rec.Sheet, rec.Kind, rec.SizeBytes, rec.TotalRows, rec.HeaderRow, rec.Err,
		).Scan(&fileID)
		if err != nil {
			return fmt.Errorf("postgres: insert file %s: %w", rec.Path, err)
		}

		for _, col := range rec.Columns {
			if _, err := tx.Exec(ctx,
				`INSERT INTO data_columns (file_id, position, name, col_type, sample_values)
				 VALUES ($1, $2, $3, $4, $5)`,
				fileID, col.Position, col.Name, col.Type, col.Samples); err != nil {
				return fmt.Errorf("postgres: insert column %s: %w", col.Name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

var _ catalog.Repository = (*Repo)(nil)
