package store

import (
	"database/sql"
	"fmt"
)

// Ingest is the transaction handle for writing one document's graph. All
// writes made through it become visible atomically on Commit; a crash or
// Rollback leaves no trace. One Ingest per document enforces the
// single-writer-per-document boundary.
type Ingest struct {
	tx *sql.Tx
}

// BeginIngest opens the ingest transaction.
func (s *Store) BeginIngest() (*Ingest, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin ingest: %w", err)
	}
	return &Ingest{tx: tx}, nil
}

// PutDocument writes the document record.
func (in *Ingest) PutDocument(d DocumentRecord) error {
	_, err := in.tx.Exec(`
		INSERT INTO documents (doc_id, content, content_hash, source_path)
		VALUES (?, ?, ?, ?)
	`, d.DocID, d.Content, d.ContentHash, d.SourcePath)
	if err != nil {
		return fmt.Errorf("store: put document: %w", err)
	}
	return nil
}

// DeleteDocument cascades an existing document away inside this
// transaction; used by force-replace so the delete and the rebuild commit
// together.
func (in *Ingest) DeleteDocument(docID string) error {
	return deleteDocumentTx(in.tx, docID)
}

// InsertNode writes a node and returns its surrogate key. A zero ParentPK
// is stored as NULL (doc root only).
func (in *Ingest) InsertNode(n NodeRecord) (int64, error) {
	var parent any
	if n.ParentPK != 0 {
		parent = n.ParentPK
	}
	res, err := in.tx.Exec(`
		INSERT INTO nodes (doc_id, start_offset, end_offset, kind, level, full_id, short_id, parent_node_pk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.DocID, n.Start, n.End, n.Kind, n.Level, n.FullID, n.ShortID, parent)
	if err != nil {
		return 0, fmt.Errorf("store: insert node: %w", err)
	}
	pk, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: node pk: %w", err)
	}
	return pk, nil
}

// InsertEdge writes one contains or next edge.
func (in *Ingest) InsertEdge(fromPK, toPK int64, edgeType string) error {
	_, err := in.tx.Exec(`
		INSERT INTO edges (from_pk, to_pk, type) VALUES (?, ?, ?)
	`, fromPK, toPK, edgeType)
	if err != nil {
		return fmt.Errorf("store: insert edge: %w", err)
	}
	return nil
}

// IndexNode adds a node's realized text to the full-text index.
func (in *Ingest) IndexNode(pk int64, text string) error {
	return ftsIndex(in.tx, pk, text)
}

// Commit makes the document's graph visible.
func (in *Ingest) Commit() error {
	if err := in.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit ingest: %w", err)
	}
	return nil
}

// Rollback abandons the ingest. Safe to call after Commit.
func (in *Ingest) Rollback() error {
	return in.tx.Rollback()
}
