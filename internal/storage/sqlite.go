package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ragsearch/internal/metadata"
	"github.com/hyperjump/ragsearch/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteMetadata implements metadata.Store using SQLite. Records are kept as a JSON column.
type SQLiteMetadata struct {
	db     *sql.DB
	mu     sync.RWMutex
	length int
}

var _ metadata.Store = (*SQLiteMetadata)(nil)

// NewSQLiteMetadata opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. An empty path or ":memory:" is in-memory.
func NewSQLiteMetadata(dbPath string) (*SQLiteMetadata, error) {
	inMemory := IsMemoryPath(dbPath)
	if inMemory {
		dbPath = MemoryPath
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every pooled connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteMetadata{db: db}
	var maxID sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(id) FROM records`).Scan(&maxID); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read record count: %w", err)
	}
	if maxID.Valid {
		s.length = int(maxID.Int64) + 1
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Reset removes every stored record. Used when a fresh vector store replaces the old one.
func (s *SQLiteMetadata) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to reset records: %w", err)
	}
	s.length = 0
	return nil
}

// Put inserts or replaces the record for id.
func (s *SQLiteMetadata) Put(ctx context.Context, id int, rec models.Record) error {
	if id < 0 {
		return fmt.Errorf("metadata id must be non-negative, got %d", id)
	}
	payload, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		id, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to store metadata %d: %w", id, err)
	}
	if id >= s.length {
		s.length = id + 1
	}
	return nil
}

// Get returns the record for id, or ok=false when no row exists.
func (s *SQLiteMetadata) Get(ctx context.Context, id int) (models.Record, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal metadata %d: %w", id, err)
	}
	return rec, true, nil
}

// Len returns one past the highest stored id.
func (s *SQLiteMetadata) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// Count returns the number of stored rows.
func (s *SQLiteMetadata) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteMetadata) Close() error {
	return s.db.Close()
}

// IsMemoryPath reports whether path selects an in-memory database.
func IsMemoryPath(path string) bool {
	return path == "" || strings.EqualFold(path, MemoryPath)
}
