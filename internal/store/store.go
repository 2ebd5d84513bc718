package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file inside the cache directory.
const DefaultFileName = "roadmap.db"

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding assembled roadmap graphs.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// cacheDir returns the default cache directory for the database.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "codebase-roadmap")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// Open opens or creates the database in the default cache directory.
func Open() (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, DefaultFileName))
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; all store methods called on
// txStore use the transaction. The receiver's q field is never mutated, so
// concurrent read-only handlers (using s.q == s.db) are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location (":memory:" for OpenMemory).
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		indexed_at TEXT NOT NULL,
		root_path TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		digest TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS nodes (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		lang TEXT NOT NULL,
		PRIMARY KEY (project, id)
	);

	CREATE TABLE IF NOT EXISTS edges (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		type TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (project, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(project, src);
	CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(project, dst);
	CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(project, type);

	CREATE TABLE IF NOT EXISTS entrypoints (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		node TEXT NOT NULL,
		reason TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		PRIMARY KEY (project, seq)
	);

	CREATE TABLE IF NOT EXISTS stats (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		key TEXT NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (project, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
