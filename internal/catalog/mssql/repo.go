// Package mssql is the SQL Server catalog backend.
//
// The driver is not blank-imported here; the importing command decides
// which go-mssqldb driver registration to use. See cmd/datamap.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"datamap/internal/analyzer"
	"datamap/internal/catalog"
)

// Repo implements catalog.Repository on SQL Server.
type Repo struct {
	db *sql.DB
}

func init() {
	catalog.Register("mssql", New)
}

func New(ctx context.Context, cfg catalog.Config) (catalog.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

const schemaSQL = `
IF OBJECT_ID('data_files', 'U') IS NULL
CREATE TABLE data_files (
	id          BIGINT IDENTITY(1,1) PRIMARY KEY,
	path        NVARCHAR(1024) NOT NULL,
	sheet       NVARCHAR(256) NOT NULL DEFAULT '',
	kind        NVARCHAR(32) NOT NULL,
	size_bytes  BIGINT NOT NULL,
	total_rows  BIGINT NOT NULL,
	header_row  INT NOT NULL,
	error       NVARCHAR(MAX) NOT NULL DEFAULT '',
	analyzed_at DATETIMEOFFSET NOT NULL
);
IF OBJECT_ID('data_columns', 'U') IS NULL
CREATE TABLE data_columns (
	file_id       BIGINT NOT NULL REFERENCES data_files(id) ON DELETE CASCADE,
	position      INT NOT NULL,
	name          NVARCHAR(256) NOT NULL,
	col_type      NVARCHAR(64) NOT NULL,
	sample_values NVARCHAR(MAX) NOT NULL DEFAULT ''
);
`

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("mssql: ensure schema: %w", err)
	}
	return nil
}

func (r *Repo) SaveResult(ctx context.Context, res *analyzer.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mssql: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM data_columns WHERE file_id IN (SELECT id FROM data_files WHERE path = @p1)`,
		res.Path); err != nil {
		return fmt.Errorf("mssql: clear columns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM data_files WHERE path = @p1`, res.Path); err != nil {
		return fmt.Errorf("mssql: clear file: %w", err)
	}

	now := time.Now().UTC()
	for _, rec := range catalog.Flatten(res) {
		var fileID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO data_files (path, sheet, kind, size_bytes, total_rows, header_row, error, analyzed_at)
			 OUTPUT INSERTED.id
			 VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8)`,
			rec.Path, rec.Sheet, rec.Kind, rec.SizeBytes, rec.TotalRows, rec.HeaderRow, rec.Err, now,
		).Scan(&fileID)
		if err != nil {
			return fmt.Errorf("mssql: insert file %s: %w", rec.Path, err)
		}

		for _, col := range rec.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO data_columns (file_id, position, name, col_type, sample_values)
				 VALUES (@p1, @p2, @p3, @p4, @p5)`,
				fileID, col.Position, col.Name, col.Type, col.Samples); err != nil {
				return fmt.Errorf("mssql: insert column %s: %w", col.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mssql: commit: %w", err)
	}
	return nil
}

var _ catalog.Repository = (*Repo)(nil)
