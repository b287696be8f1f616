package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the graphweave SQLite database.
type DB struct {
	*sql.DB
	Path string
}

// DefaultDBPath returns the default database path: ~/.graphweave/graph.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".graphweave", "graph.db"), nil
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{DB: sqlDB, Path: path}
	if err := db.configure(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}

	db := &DB{DB: sqlDB, Path: ":memory:"}
	if err := db.configure(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) configure() error {
	// The sqlite driver opens a new low-level connection per pool slot, and
	// an in-memory database exists per connection. One writer is the
	// concurrency contract anyway, so pin the pool to a single connection.
	db.SetMaxOpenConns(1)

	if err := db.configurePragmas(); err != nil {
		return err
	}
	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// Stats holds the row counts exposed by the orchestrator.
type Stats struct {
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
	Memories      int `json:"memories"`
}

// Stats returns row counts for the three logical tables.
func (db *DB) Stats() (Stats, error) {
	var s Stats
	if err := db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&s.Entities); err != nil {
		return s, fmt.Errorf("count entities: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM relationships").Scan(&s.Relationships); err != nil {
		return s, fmt.Errorf("count relationships: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM memories").Scan(&s.Memories); err != nil {
		return s, fmt.Errorf("count memories: %w", err)
	}
	return s, nil
}
