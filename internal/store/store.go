package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCourseExists   = errors.New("course already exists")
)

const DefaultMaxResults = 5

// Store handles the SQLite catalog and chunk index.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store. maxResults <= 0 means DefaultMaxResults.
func Open(path string, maxResults int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		title TEXT PRIMARY KEY,
		link TEXT,
		instructor TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS lessons (
		course_title TEXT NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		link TEXT,
		PRIMARY KEY (course_title, number),
		FOREIGN KEY (course_title) REFERENCES courses(title) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		course_title TEXT NOT NULL,
		lesson_number INTEGER,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		FOREIGN KEY (course_title) REFERENCES courses(title) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_course_lesson ON chunks(course_title, lesson_number);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Clear removes every course, lesson and chunk.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range []string{"DELETE FROM chunks", "DELETE FROM lessons", "DELETE FROM courses"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}
