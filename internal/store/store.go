package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"taskforge/internal/domain"

	_ "modernc.org/sqlite"
)

// driverName selects which registered database/sql driver Open uses. The
// default is the pure-Go modernc.org/sqlite driver; building with the
// sqlite_vec,cgo tag switches this to "sqlite3" (mattn/go-sqlite3 +
// sqlite-vec native extension) via open_cgo.go's init().
var driverName = "sqlite"

// LocalStore owns a single *sql.DB and a guarding mutex, matching the
// teacher's internal/store "one struct owns *sql.DB + sync.RWMutex" shape.
// It carries the repository methods for every entity; session persistence
// is graph.SQLSessionStorage, built over DB().
type LocalStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at dsn, initializes the
// schema, and seeds fixed rows. dsn is a modernc/mattn-compatible data
// source name, e.g. "file:taskforge.db?_pragma=busy_timeout(5000)".
func Open(ctx context.Context, dsn string) (*LocalStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrPersistence, err)
	}
	db.SetMaxOpenConns(1) // single-writer SQLite; serializes writers through LocalStore's mutex too
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &LocalStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for constructing a SQLSessionStorage.
func (s *LocalStore) DB() *sql.DB {
	return s.db
}
