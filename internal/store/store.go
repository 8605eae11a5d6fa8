// Package store persists repository count series in a relational database,
// SQLite or PostgreSQL, selected by connection string. The store is an
// explicitly constructed handle with its own lifecycle; there is no
// package-level connection.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver
)

// Backend identifies the database engine behind a store.
type Backend string

const (
	// SQLiteBackend stores data in a local SQLite file
	SQLiteBackend Backend = "sqlite"
	// PostgresBackend stores data in a PostgreSQL database
	PostgresBackend Backend = "postgres"
)

// Store is a handle to the tracker database.
type Store struct {
	db      *sql.DB
	backend Backend
}

// Open connects to the database named by connStr and runs any pending
// migrations. A postgres:// or postgresql:// URL selects PostgreSQL;
// anything else is treated as a SQLite file path.
func Open(connStr string) (*Store, error) {
	var db *sql.DB
	var backend Backend
	var err error

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		backend = PostgresBackend
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
	} else {
		backend = SQLiteBackend
		db, err = sql.Open("sqlite", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w", connStr, err)
		}
		// A single connection avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	s := &Store{db: db, backend: backend}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-style placeholders to the $n style PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.backend != PostgresBackend {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
