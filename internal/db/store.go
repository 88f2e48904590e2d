package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store wraps the SQLite database holding the memory tables and their search indexes.
type Store struct {
	db *sql.DB
	// writeMu serialises WithTx so read-then-write transactions never race
	// for the write lock.
	writeMu sync.Mutex
}

// Querier is satisfied by both *sql.DB and *sql.Tx so index helpers can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Stats summarises row counts across the index tables.
type Stats struct {
	Projects      int
	Topics        int
	Decisions     int
	Tasks         int
	Logs          int
	IndexRows     int
	LexicalRows   int
	VectorRows    int
	MissingVector int
}

// _txlock=immediate takes the write lock at BEGIN, where busy_timeout applies,
// instead of at the first write inside the transaction.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + pragmas
	} else {
		dsn += "?" + pragmas
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WithTx runs fn inside a transaction, rolling back when fn returns an error.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DB returns the underlying SQL database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM`)
	return err
}

func (s *Store) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats reports how many rows each table holds, including index rows still
// waiting for an embedding.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	targets := []struct {
		dst   *int
		query string
	}{
		{&st.Projects, `SELECT COUNT(*) FROM projects`},
		{&st.Topics, `SELECT COUNT(*) FROM topics`},
		{&st.Decisions, `SELECT COUNT(*) FROM decisions`},
		{&st.Tasks, `SELECT COUNT(*) FROM tasks`},
		{&st.Logs, `SELECT COUNT(*) FROM discussion_logs`},
		{&st.IndexRows, `SELECT COUNT(*) FROM search_index`},
		{&st.LexicalRows, `SELECT COUNT(*) FROM search_index_fts`},
		{&st.VectorRows, `SELECT COUNT(*) FROM vec_index`},
		{&st.MissingVector, `SELECT COUNT(*) FROM search_index si LEFT JOIN vec_index vi ON vi.rowid = si.id WHERE vi.rowid IS NULL`},
	}
	for _, t := range targets {
		n, err := s.count(ctx, t.query)
		if err != nil {
			return Stats{}, err
		}
		*t.dst = n
	}
	return st, nil
}

// IsConstraint reports whether err is a SQLite uniqueness, check or foreign key failure.
func IsConstraint(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "constraint failed")
}
