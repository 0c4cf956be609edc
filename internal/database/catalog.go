package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tessara/memcarve/internal/carve"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    created     TEXT    NOT NULL,
    source      TEXT    NOT NULL,
    source_size INTEGER NOT NULL,
    cancelled   INTEGER NOT NULL DEFAULT 0,
    duplicates  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       INTEGER NOT NULL REFERENCES runs(id),
    offset       INTEGER NOT NULL,
    size_in_dump INTEGER NOT NULL,
    file_type    TEXT    NOT NULL,
    filename     TEXT    NOT NULL,
    is_partial   INTEGER NOT NULL,
    converted    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(file_type);
`

// Catalog records carving runs and their recovered entries.
type Catalog struct {
	*Database
}

// NewCatalog opens the catalog at path, creating the schema when missing.
func NewCatalog(options *DatabaseOptions) (*Catalog, error) {
	db, err := NewDatabase(options)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(context.Background(), catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return &Catalog{Database: db}, nil
}

// InsertRun stores one carving run with all its entries in a single
// transaction and returns the run id.
func (c *Catalog) InsertRun(ctx context.Context, source string, res *carve.Result, sourceSize int64) (int64, error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	row, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created, source, source_size, cancelled, duplicates) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), source, sourceSize, res.Cancelled, res.Duplicates)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := row.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (run_id, offset, size_in_dump, file_type, filename, is_partial, converted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range res.Entries {
		if _, err := stmt.ExecContext(ctx, runID, e.Offset, e.SizeInDump, e.FileType, e.Filename, e.IsPartial, e.Converted); err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// EntryFilter narrows QueryEntries results. Zero values match everything.
type EntryFilter struct {
	RunID    int64
	FileType string
	Partial  bool
	Limit    int
}

// QueryEntries returns catalog entries matching the filter, newest run first,
// offset-ordered within a run.
func (c *Catalog) QueryEntries(ctx context.Context, filter EntryFilter) ([]carve.Entry, error) {
	query := `SELECT offset, size_in_dump, file_type, filename, is_partial, converted FROM entries WHERE 1=1`
	var args []interface{}
	if filter.RunID > 0 {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.FileType != "" {
		query += ` AND file_type = ?`
		args = append(args, filter.FileType)
	}
	if filter.Partial {
		query += ` AND is_partial = 1`
	}
	query += ` ORDER BY run_id DESC, offset ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []carve.Entry
	for rows.Next() {
		var e carve.Entry
		if err := rows.Scan(&e.Offset, &e.SizeInDump, &e.FileType, &e.Filename, &e.IsPartial, &e.Converted); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.OffsetHex = fmt.Sprintf("0x%X", e.Offset)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary aggregates entry counts and bytes per file type, optionally
// restricted to one run.
func (c *Catalog) Summary(ctx context.Context, runID int64) (map[string]carve.TypeSummary, error) {
	query := `SELECT file_type, COUNT(*), SUM(size_in_dump) FROM entries`
	var args []interface{}
	if runID > 0 {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY file_type`

	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make(map[string]carve.TypeSummary)
	for rows.Next() {
		var typ string
		var s carve.TypeSummary
		if err := rows.Scan(&typ, &s.Count, &s.Bytes); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		summary[typ] = s
	}
	return summary, rows.Err()
}
