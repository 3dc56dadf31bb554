package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is a Backend on an embedded SQLite database.
type SQLite struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("db path is empty")
	}
	dsn := path
	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		dsn = sqliteDSN(path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, q: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	tbl TEXT NOT NULL,
	id TEXT NOT NULL,
	doc TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (tbl, id)
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Get implements Backend.
func (s *SQLite) Get(ctx context.Context, table, id string) ([]byte, error) {
	var doc string
	err := s.q.QueryRowContext(ctx, `SELECT doc FROM records WHERE tbl = ? AND id = ?;`, table, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// Insert implements Backend.
func (s *SQLite) Insert(ctx context.Context, table, id string, doc []byte) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO records (tbl, id, doc, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (tbl, id) DO NOTHING;`,
		table, id, string(doc), now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

// Replace implements Backend.
func (s *SQLite) Replace(ctx context.Context, table, id string, doc []byte) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE records SET doc = ?, updated_at = ? WHERE tbl = ? AND id = ?;`,
		string(doc), now(), table, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Backend.
func (s *SQLite) Delete(ctx context.Context, table, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM records WHERE tbl = ? AND id = ?;`, table, id)
	return err
}

// Scan implements Backend. Documents come back in insertion order.
func (s *SQLite) Scan(ctx context.Context, table string) ([][]byte, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT doc FROM records WHERE tbl = ? ORDER BY seq;`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, []byte(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Batch implements Backend with a SQL transaction.
func (s *SQLite) Batch(ctx context.Context, fn func(Backend) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&SQLite{db: s.db, q: tx, inTx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close implements Backend. Closing a transaction-bound view is a no-op.
func (s *SQLite) Close() error {
	if s.inTx || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
