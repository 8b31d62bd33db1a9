package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file. An empty path
// yields the zero fingerprint.
func StatFile(path string) (FileFingerprint, error) {
	if path == "" {
		return FileFingerprint{}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (f FileFingerprint) modTime() string {
	if f.ModTime.IsZero() {
		return ""
	}
	return f.ModTime.UTC().Format(time.RFC3339Nano)
}

// SetSources records the annotation files the stored effects were computed
// from.
func (s *Store) SetSources(gtf, fasta FileFingerprint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM annotation_sources"); err != nil {
		return fmt.Errorf("clear sources: %w", err)
	}
	for kind, fp := range map[string]FileFingerprint{"gtf": gtf, "fasta": fasta} {
		if _, err := tx.Exec(
			"INSERT INTO annotation_sources (kind, path, size, mod_time) VALUES (?, ?, ?, ?)",
			kind, fp.Path, fp.Size, fp.modTime(),
		); err != nil {
			return fmt.Errorf("insert %s source: %w", kind, err)
		}
	}
	return tx.Commit()
}

// SourcesMatch reports whether the stored effects were computed from files
// with the given size and modification time. A store without recorded
// sources never matches.
func (s *Store) SourcesMatch(gtf, fasta FileFingerprint) (bool, error) {
	for kind, fp := range map[string]FileFingerprint{"gtf": gtf, "fasta": fasta} {
		var size int64
		var modTime string
		err := s.db.QueryRow(
			"SELECT size, mod_time FROM annotation_sources WHERE kind=?", kind,
		).Scan(&size, &modTime)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("query %s source: %w", kind, err)
		}
		if size != fp.Size || modTime != fp.modTime() {
			return false, nil
		}
	}
	return true, nil
}
