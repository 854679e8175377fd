package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

// GetDocument returns the stored document, or apperr.ErrNotFound.
func (s *Store) GetDocument(docID string) (*DocumentRecord, error) {
	var d DocumentRecord
	err := s.conn.QueryRow(`
		SELECT doc_id, content, content_hash, source_path
		FROM documents WHERE doc_id = ?
	`, docID).Scan(&d.DocID, &d.Content, &d.ContentHash, &d.SourcePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return &d, nil
}

// DocumentHash returns the content hash for docID, or empty string when
// the document is not stored.
func (s *Store) DocumentHash(docID string) (string, error) {
	var hash string
	err := s.conn.QueryRow(`SELECT content_hash FROM documents WHERE doc_id = ?`, docID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: document hash: %w", err)
	}
	return hash, nil
}

// ListDocuments returns every stored doc_id with its source path.
func (s *Store) ListDocuments() ([]DocumentRecord, error) {
	rows, err := s.conn.Query(`SELECT doc_id, content_hash, source_path FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.DocID, &d.ContentHash, &d.SourcePath); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document and everything hanging off it in its
// own transaction.
func (s *Store) DeleteDocument(docID string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := deleteDocumentTx(tx, docID); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteDocumentTx cascades a document deletion in referential order:
// index entries, edges, embeddings, nodes, document. The ordering keeps a
// mid-failure rollback from ever exposing edges to deleted nodes.
func deleteDocumentTx(tx *sql.Tx, docID string) error {
	if err := ftsDeleteDoc(tx, docID); err != nil {
		return err
	}
	_, err := tx.Exec(`
		DELETE FROM edges WHERE from_pk IN (SELECT node_pk FROM nodes WHERE doc_id = ?)
		   OR to_pk IN (SELECT node_pk FROM nodes WHERE doc_id = ?)
	`, docID, docID)
	if err != nil {
		return fmt.Errorf("store: delete edges: %w", err)
	}
	_, err = tx.Exec(`
		DELETE FROM embeddings WHERE full_id IN (SELECT full_id FROM nodes WHERE doc_id = ?)
	`, docID)
	if err != nil {
		return fmt.Errorf("store: delete embeddings: %w", err)
	}
	// Clear self-referencing parent pointers so the bulk delete never
	// trips the foreign key mid-statement.
	if _, err := tx.Exec(`UPDATE nodes SET parent_node_pk = NULL WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("store: clear parents: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("store: delete nodes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	return nil
}
