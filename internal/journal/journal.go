// Package journal persists completed bridge calls in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cryguy/webview/internal/core"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id     TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	func        TEXT    NOT NULL,
	params      TEXT    NOT NULL,
	ok          INTEGER NOT NULL,
	result      TEXT    NOT NULL,
	error       TEXT    NOT NULL,
	duration_us INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS calls_page ON calls (page_id, seq);
`

// maxResultBytes bounds the stored result of a single call.
const maxResultBytes = 64 * 1024

// Journal records bridge calls. It implements core.Journal.
type Journal struct {
	db *sql.DB
}

var _ core.Journal = (*Journal)(nil)

// Open opens (or creates) the journal at path. ":memory:" gives a
// private in-memory journal.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, _ = db.Exec("PRAGMA journal_mode=WAL")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record stores one completed call.
func (j *Journal) Record(ctx context.Context, e core.JournalEntry) error {
	params, err := core.JSON.MarshalToString(e.Params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if e.Params == nil {
		params = "[]"
	}
	result := e.Result
	if len(result) > maxResultBytes {
		result = result[:maxResultBytes]
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO calls (page_id, url, seq, func, params, ok, result, error, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PageID, e.URL, e.Seq, e.Func, params, boolInt(e.OK), result, e.Error,
		e.Duration.Microseconds(), created.UnixNano())
	if err != nil {
		return fmt.Errorf("recording call %s#%d: %w", e.Func, e.Seq, err)
	}
	return nil
}

// Recent returns up to limit calls, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]core.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT page_id, url, seq, func, params, ok, result, error, duration_us, created_at
		 FROM calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []core.JournalEntry
	for rows.Next() {
		var (
			e          core.JournalEntry
			params     string
			ok         int
			durationUS int64
			createdNS  int64
		)
		if err := rows.Scan(&e.PageID, &e.URL, &e.Seq, &e.Func, &params, &ok,
			&e.Result, &e.Error, &durationUS, &createdNS); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if err := core.JSON.UnmarshalFromString(params, &e.Params); err != nil {
			return nil, fmt.Errorf("decoding params: %w", err)
		}
		e.OK = ok != 0
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.CreatedAt = time.Unix(0, createdNS)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded calls.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journal: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
