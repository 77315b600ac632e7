// Package knowledge provides the service manual index used to enrich service
// plans: a SQLite backed keyword index and an HTTP client for a remote one.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"

	coreknowledge "github.com/kilianp07/batterycare/core/knowledge"
)

// SQLiteIndex stores manual chunks in a SQLite database and ranks them by
// the number of query terms they contain.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens or creates the database and ensures schema.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source TEXT NOT NULL,
        section TEXT NOT NULL,
        body TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

// Add stores snippets under source.
func (s *SQLiteIndex) Add(ctx context.Context, source string, snippets []coreknowledge.Snippet) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertChunks(ctx, tx, source, snippets)
	})
}

// Ingest splits a document into chunks and stores them. Chunks previously
// stored for the same source are replaced; on failure they are left intact.
func (s *SQLiteIndex) Ingest(ctx context.Context, source string, r io.Reader, size, overlap int) (int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	chunks := coreknowledge.Split(string(b), size, overlap)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
			return err
		}
		return insertChunks(ctx, tx, source, chunks)
	})
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *SQLiteIndex) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertChunks(ctx context.Context, tx *sql.Tx, source string, snippets []coreknowledge.Snippet) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (source, section, body) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, sn := range snippets {
		if _, err := stmt.ExecContext(ctx, source, sn.Section, sn.Text); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Retrieve implements core/knowledge.Retriever. Chunks are ranked by the
// number of distinct query terms found in their section or body, ties broken
// by insertion order.
func (s *SQLiteIndex) Retrieve(ctx context.Context, query string, k int) ([]coreknowledge.Snippet, error) {
	terms := Terms(query)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}
	parts := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, t := range terms {
		parts[i] = "(instr(lower(section || ' ' || body), ?) > 0)"
		args = append(args, t)
	}
	args = append(args, k)
	q := fmt.Sprintf(`SELECT section, body, score FROM (
        SELECT id, section, body, %s AS score FROM chunks
    ) WHERE score > 0 ORDER BY score DESC, id ASC LIMIT ?`, strings.Join(parts, " + "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coreknowledge.Snippet
	for rows.Next() {
		var sn coreknowledge.Snippet
		if err := rows.Scan(&sn.Section, &sn.Text, &sn.Score); err != nil {
			return nil, err
		}
		res = append(res, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteIndex) Close() error { return s.db.Close() }

var stopwords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "state": true, "of": true,
}

// Terms lowercases the query and keeps distinct words of three or more
// characters, in order of appearance. Dates and percentages are dropped.
func Terms(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		f = strings.Trim(f, "-")
		if len([]rune(f)) < 3 || stopwords[f] || seen[f] || strings.IndexFunc(f, unicode.IsLetter) < 0 {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
