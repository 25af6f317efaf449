package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite ledger of scanned files and reference records.
type Store struct {
	db *sql.DB
}

// NewMemoryStore opens and migrates a private in-memory Store that
// disappears on Close.
func NewMemoryStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" sees its own empty database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS references_ (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  name            TEXT NOT NULL,
  line            INTEGER NOT NULL,
  context         TEXT
);

CREATE INDEX IF NOT EXISTS idx_references_name ON references_(name);
`

// Reset deletes all files and references, leaving the schema in place.
func (s *Store) Reset() error {
	if _, err := s.db.Exec("DELETE FROM references_; DELETE FROM files;"); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// ReferencesByNames returns the recorded references for each of names,
// keyed by name, each list in insertion order. Names with no references
// are absent from the map.
func (s *Store) ReferencesByNames(names []string) (map[string][]Reference, error) {
	result := make(map[string][]Reference, len(names))
	for _, chunk := range chunkStrings(names, maxQueryArgs) {
		rows, err := s.db.Query(
			`SELECT r.id, r.name, f.path, r.line, r.context
			 FROM references_ r JOIN files f ON f.id = r.file_id
			 WHERE r.name IN (`+placeholderList(len(chunk))+`)
			 ORDER BY r.id`,
			stringsToArgs(chunk)...,
		)
		if err != nil {
			return nil, fmt.Errorf("references by names: %w", err)
		}
		for rows.Next() {
			var ref Reference
			if err := rows.Scan(&ref.ID, &ref.Name, &ref.File, &ref.Line, &ref.Context); err != nil {
				rows.Close()
				return nil, fmt.Errorf("references by names: scan: %w", err)
			}
			result[ref.Name] = append(result[ref.Name], ref)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

// FileReferenceCounts returns how many references each recorded file holds,
// busiest file first and ties broken by path.
func (s *Store) FileReferenceCounts() ([]FileCount, error) {
	rows, err := s.db.Query(
		`SELECT f.path, COUNT(r.id) AS n
		 FROM files f JOIN references_ r ON r.file_id = f.id
		 GROUP BY f.id
		 ORDER BY n DESC, f.path`,
	)
	if err != nil {
		return nil, fmt.Errorf("file reference counts: %w", err)
	}
	defer rows.Close()

	var counts []FileCount
	for rows.Next() {
		var fc FileCount
		if err := rows.Scan(&fc.Path, &fc.References); err != nil {
			return nil, fmt.Errorf("file reference counts: scan: %w", err)
		}
		counts = append(counts, fc)
	}
	return counts, rows.Err()
}
