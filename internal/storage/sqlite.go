// Package storage writes ledger snapshots to local SQLite files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ExportStore is a SQLite file holding exported transactions and balances.
type ExportStore struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the export file at dbPath and brings its schema up to date.
func Open(ctx context.Context, dbPath string) (*ExportStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; sqlite gains nothing from more
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &ExportStore{db: db, dbPath: dbPath}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path is the file backing the store.
func (s *ExportStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *ExportStore) Close() error {
	return s.db.Close()
}
