package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// maxQueryArgs keeps IN (...) lists under SQLite's host parameter limit.
const maxQueryArgs = 500

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// insertFileTx records path if it is new and returns its ID either way.
func insertFileTx(q queryer, path string) (int64, error) {
	if _, err := q.Exec("INSERT OR IGNORE INTO files (path) VALUES (?)", path); err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	var id int64
	if err := q.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert file: lookup: %w", err)
	}
	return id, nil
}

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// chunkStrings splits values into consecutive slices of at most size
// elements.
func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for len(values) > size {
		chunks = append(chunks, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		chunks = append(chunks, values)
	}
	return chunks
}
