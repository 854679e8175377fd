//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/ansuz/internal/scope"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS node_fts USING fts5(
			body,
			node_pk UNINDEXED,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsIndex(tx *sql.Tx, pk int64, text string) error {
	_, err := tx.Exec(`INSERT INTO node_fts (body, node_pk) VALUES (?, ?)`, text, pk)
	if err != nil {
		return fmt.Errorf("store: index node: %w", err)
	}
	return nil
}

func ftsDeleteDoc(tx *sql.Tx, docID string) error {
	_, err := tx.Exec(`
		DELETE FROM node_fts WHERE node_pk IN (SELECT node_pk FROM nodes WHERE doc_id = ?)
	`, docID)
	if err != nil {
		return fmt.Errorf("store: delete fts entries: %w", err)
	}
	return nil
}

// Search runs an FTS5 query over node text. Quoted phrases and AND/OR/NOT
// pass through to MATCH; bare terms are quoted during normalisation so
// user input never trips FTS5 syntax. Results come back bm25-ranked with
// matched terms wrapped in << >> markers. A non-nil set restricts
// candidates to nodes whose full_id or doc_id is a member.
func (s *Store) Search(query string, limit int, set scope.Set) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `
		SELECT n.node_pk, n.doc_id, n.short_id,
		       snippet(node_fts, 0, '<<', '>>', '…', 12),
		       -bm25(node_fts)
		FROM node_fts
		JOIN nodes n ON n.node_pk = node_fts.node_pk
		WHERE node_fts MATCH ?`
	args := []any{normalizeQuery(query)}

	if set != nil {
		clause, scopeArgs := scopeClause(set)
		q += " AND " + clause
		args = append(args, scopeArgs...)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.NodePK, &r.DocID, &r.ShortID, &r.Snippet, &r.Score); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
