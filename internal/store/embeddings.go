package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

// PutEmbedding stores one vector per (full_id, model), replacing any
// previous vector for the pair.
func (s *Store) PutEmbedding(e EmbeddingRecord) error {
	_, err := s.conn.Exec(`
		INSERT INTO embeddings (full_id, model, dimensions, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(full_id, model) DO UPDATE SET
			dimensions = excluded.dimensions,
			vector     = excluded.vector
	`, e.FullID, e.Model, e.Dimensions, e.Vector)
	if err != nil {
		return fmt.Errorf("store: put embedding: %w", err)
	}
	return nil
}

// Embedding returns the stored vector for (fullID, model), or
// apperr.ErrNotFound.
func (s *Store) Embedding(fullID, model string) (*EmbeddingRecord, error) {
	var e EmbeddingRecord
	err := s.conn.QueryRow(`
		SELECT full_id, model, dimensions, vector FROM embeddings
		WHERE full_id = ? AND model = ?
	`, fullID, model).Scan(&e.FullID, &e.Model, &e.Dimensions, &e.Vector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get embedding: %w", err)
	}
	return &e, nil
}

// AllEmbeddings returns every vector stored under model, in insertion
// order. Semantic queries rely on that order for stable tie-breaking.
// DocID is populated from the owning node so scope filters can match
// either identifier.
func (s *Store) AllEmbeddings(model string) ([]EmbeddingRecord, error) {
	rows, err := s.conn.Query(`
		SELECT e.full_id, e.model, e.dimensions, e.vector, n.doc_id
		FROM embeddings e
		JOIN nodes n ON n.full_id = e.full_id
		WHERE e.model = ?
		ORDER BY e.rowid
	`, model)
	if err != nil {
		return nil, fmt.Errorf("store: all embeddings: %w", err)
	}
	defer rows.Close()

	var out []EmbeddingRecord
	for rows.Next() {
		var e EmbeddingRecord
		if err := rows.Scan(&e.FullID, &e.Model, &e.Dimensions, &e.Vector, &e.DocID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
