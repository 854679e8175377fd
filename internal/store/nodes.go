package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

const nodeColumns = `node_pk, doc_id, start_offset, end_offset, kind, level, full_id, short_id, parent_node_pk`

func scanNode(row interface{ Scan(...any) error }) (*NodeRecord, error) {
	var n NodeRecord
	var parent sql.NullInt64
	err := row.Scan(&n.PK, &n.DocID, &n.Start, &n.End, &n.Kind, &n.Level, &n.FullID, &n.ShortID, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan node: %w", err)
	}
	if parent.Valid {
		n.ParentPK = parent.Int64
	}
	return &n, nil
}

// NodeByPK returns a node by its surrogate key. This is a primary-key
// lookup; ancestor walks in the renderer rely on it staying O(1).
func (s *Store) NodeByPK(pk int64) (*NodeRecord, error) {
	return scanNode(s.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE node_pk = ?`, pk))
}

// NodeByShortID returns the node carrying the given short ID.
func (s *Store) NodeByShortID(shortID string) (*NodeRecord, error) {
	return scanNode(s.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE short_id = ?`, shortID))
}

// NodeByFullID returns the node carrying the given content address.
func (s *Store) NodeByFullID(fullID string) (*NodeRecord, error) {
	return scanNode(s.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE full_id = ?`, fullID))
}

// NodesForDoc returns every node of a document in span order, doc root
// first.
func (s *Store) NodesForDoc(docID string) ([]NodeRecord, error) {
	rows, err := s.conn.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE doc_id = ?
		ORDER BY start_offset, end_offset DESC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("store: nodes for doc: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// ChildrenOf returns the direct children of a node in span order,
// following the contains edges.
func (s *Store) ChildrenOf(pk int64) ([]NodeRecord, error) {
	rows, err := s.conn.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE node_pk IN (SELECT to_pk FROM edges WHERE from_pk = ? AND type = ?)
		ORDER BY start_offset
	`, pk, EdgeContains)
	if err != nil {
		return nil, fmt.Errorf("store: children of: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// NextSibling returns the node linked from pk by a next edge, or
// apperr.ErrNotFound when pk is the last sibling.
func (s *Store) NextSibling(pk int64) (*NodeRecord, error) {
	return scanNode(s.conn.QueryRow(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE node_pk = (SELECT to_pk FROM edges WHERE from_pk = ? AND type = ?)
	`, pk, EdgeNext))
}

// DocRoot returns the doc node of a document.
func (s *Store) DocRoot(docID string) (*NodeRecord, error) {
	return scanNode(s.conn.QueryRow(`
		SELECT `+nodeColumns+` FROM nodes WHERE doc_id = ? AND kind = 'doc'
	`, docID))
}

// AllShortIDs returns every assigned short ID across the corpus, minus
// the given document's own codes. Ingest reads this view before assigning
// new codes so collision resolution sees the whole corpus; excluding the
// document being (re)ingested keeps a force-replace byte-identical to a
// fresh ingest. Pass the empty string to get the full set.
func (s *Store) AllShortIDs(excludeDocID string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(`SELECT short_id FROM nodes WHERE doc_id != ?`, excludeDocID)
	if err != nil {
		return nil, fmt.Errorf("store: all short ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func collectNodes(rows *sql.Rows) ([]NodeRecord, error) {
	var out []NodeRecord
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}
