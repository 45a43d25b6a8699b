// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the canonical paper library, the staging area, and
// the citation graph in a single SQLite database. It is the only package
// that touches SQL; services above it speak in pkg/types values.
//
// The store assumes a single logical writer. Mutations run in short-lived
// per-record transactions that either leave the DOI-uniqueness invariant
// intact or do not commit at all for that record.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/pkg/types"
)

var (
	// ErrNotFound reports an unknown paper or staging id. Surfaced to the
	// caller, never retried.
	ErrNotFound = errors.New("record not found")

	// ErrDOIConflict reports an attempted DOI collision across two surviving
	// records. It aborts the offending record's mutation only.
	ErrDOIConflict = errors.New("doi already belongs to another paper")
)

// Store manages the paperlib SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the database at cfg.Path and ensures the schema
// exists. WAL mode keeps readers (search, ego graph) from blocking behind
// the writer.
func Open(cfg types.StoreConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = "paperlib.db"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL DEFAULT 'full',
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			year INTEGER,
			venue TEXT,
			keywords TEXT,
			url TEXT,
			doi TEXT NOT NULL DEFAULT '',
			arxiv_id TEXT,
			source TEXT,
			norm_title TEXT,
			first_author TEXT,
			embedding TEXT,
			citations_count INTEGER NOT NULL DEFAULT 0,
			archived INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_weak ON papers(first_author, year)`,
		`CREATE TABLE IF NOT EXISTS paper_sources (
			paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			PRIMARY KEY (source, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_sources_paper ON paper_sources(paper_id)`,
		`CREATE TABLE IF NOT EXISTS staging_papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			year INTEGER,
			venue TEXT,
			keywords TEXT,
			url TEXT,
			doi TEXT NOT NULL DEFAULT '',
			arxiv_id TEXT,
			source TEXT,
			source_id TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			batch_id TEXT,
			paper_id INTEGER REFERENCES papers(id),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_staging_status ON staging_papers(status)`,
		`CREATE INDEX IF NOT EXISTS idx_staging_doi ON staging_papers(doi)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			citing_paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			cited_paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			source TEXT,
			confidence REAL NOT NULL DEFAULT 1.0,
			raw_ref TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_cited ON citations(cited_paper_id)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paper_groups (
			paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			PRIMARY KEY (paper_id, group_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// now returns the current UTC time truncated for stable round-tripping.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// marshalJSON encodes a value for a JSON text column; nil and empty slices
// become SQL NULL.
func marshalJSON(v any) any {
	switch x := v.(type) {
	case []string:
		if len(x) == 0 {
			return nil
		}
	case []float32:
		if len(x) == 0 {
			return nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

func unmarshalStrings(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

func unmarshalVector(s sql.NullString) []float32 {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []float32
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// Fallback for wrapped drivers.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
