package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"contact-monitor/internal/domain/ports"
)

//go:embed migrations.sql
var migrations string

// SQLiteStore keeps the count in a SQLite database together with a history
// of every saved value.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.CountStore   = (*SQLiteStore)(nil)
	_ ports.CountHistory = (*SQLiteStore)(nil)
)

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")

	if _, err := db.ExecContext(ctx, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the stored count, or 0 when none was saved yet.
func (s *SQLiteStore) Load(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT last_count FROM monitor_state WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load count: %w", err)
	}
	return n, nil
}

// Save upserts the count and appends a history row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, count int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := s.now().UTC().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO monitor_state (id, last_count, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET last_count = excluded.last_count, updated_at = excluded.updated_at`,
		count, ts); err != nil {
		return fmt.Errorf("save count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO count_history (count, saved_at) VALUES (?, ?)`, count, ts); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return tx.Commit()
}

// History returns up to limit saved counts, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]ports.CountRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT count, saved_at FROM count_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []ports.CountRecord
	for rows.Next() {
		var (
			rec ports.CountRecord
			ms  int64
		)
		if err := rows.Scan(&rec.Count, &ms); err != nil {
			return nil, err
		}
		rec.SavedAt = time.UnixMilli(ms).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
