package store

import "fmt"

// CommitReferences inserts refs within a single transaction, recording each
// distinct file path first. IDs are assigned in slice order, so reading the
// references back by ID reproduces refs' order.
func (s *Store) CommitReferences(refs []Reference) error {
	if len(refs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit references: begin: %w", err)
	}
	defer tx.Rollback()

	fileIDs := make(map[string]int64)
	stmt, err := tx.Prepare("INSERT INTO references_ (file_id, name, line, context) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("commit references: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		fileID, ok := fileIDs[ref.File]
		if !ok {
			fileID, err = insertFileTx(tx, ref.File)
			if err != nil {
				return fmt.Errorf("commit references: file %q: %w", ref.File, err)
			}
			fileIDs[ref.File] = fileID
		}
		if _, err := stmt.Exec(fileID, ref.Name, ref.Line, ref.Context); err != nil {
			return fmt.Errorf("commit references: reference %q: %w", ref.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit references: %w", err)
	}
	return nil
}
