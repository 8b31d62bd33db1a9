// Package duckdb persists codon change effects in DuckDB, keyed by variant
// and transcript so re-annotating a variant replaces its rows, and caches
// parsed transcripts as gob files.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding emitted effects.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex // serializes writes through the staging table
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

const effectColumns = `
		chrom VARCHAR,
		pos BIGINT,
		end_pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		variant_id VARCHAR,
		transcript_id VARCHAR,
		gene_name VARCHAR,
		gene_id VARCHAR,
		strand VARCHAR,
		biotype VARCHAR,
		effect VARCHAR,
		low_priority BOOLEAN,
		codon_num BIGINT,
		codon_index BIGINT,
		codons_ref VARCHAR,
		codons_alt VARCHAR`

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS codon_effects (` + effectColumns + `,
		PRIMARY KEY (chrom, pos, ref, alt, transcript_id)
	)`,
		// Appender target; rows are merged into codon_effects on flush.
		`CREATE TABLE IF NOT EXISTS codon_effects_staging (` + effectColumns + `
	)`,
		`CREATE TABLE IF NOT EXISTS annotation_sources (
		kind VARCHAR PRIMARY KEY,
		path VARCHAR,
		size BIGINT,
		mod_time VARCHAR
	)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
