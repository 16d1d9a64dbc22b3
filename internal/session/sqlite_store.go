package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps drafts in a SQLite file so they survive restarts of
// the session client.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the draft database at dir/drafts.db.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "drafts.db"))
	if err != nil {
		return nil, fmt.Errorf("opening draft db: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			program_id TEXT PRIMARY KEY,
			data       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_starts (
			program_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating draft tables: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the draft database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadDraft(ctx context.Context, programID uuid.UUID) (*Draft, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM drafts WHERE program_id = ?`, programID.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	d.ProgramID = programID
	return &d, nil
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts (program_id, data) VALUES (?, ?)`,
		d.ProgramID.String(), string(data))
	if err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, programID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE program_id = ?`, programID.String()); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// ListDrafts returns the program ids that have a stored draft. Rows whose
// key is not a UUID are skipped.
func (s *SQLiteStore) ListDrafts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT program_id FROM drafts`)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning draft key: %w", err)
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) LoadStart(ctx context.Context, programID uuid.UUID) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM session_starts WHERE program_id = ?`, programID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoRecord
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading start time: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding start time: %w", err)
	}
	return at, nil
}

func (s *SQLiteStore) SaveStart(ctx context.Context, programID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_starts (program_id, started_at) VALUES (?, ?)`,
		programID.String(), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing start time: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteStart(ctx context.Context, programID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_starts WHERE program_id = ?`, programID.String()); err != nil {
		return fmt.Errorf("deleting start time: %w", err)
	}
	return nil
}

// ListStarts returns the program ids that have a stored start time.
func (s *SQLiteStore) ListStarts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT program_id FROM session_starts`)
	if err != nil {
		return nil, fmt.Errorf("listing start times: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning start key: %w", err)
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
