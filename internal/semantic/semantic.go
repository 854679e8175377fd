// Package semantic ranks nodes by cosine similarity between stored
// embedding vectors and an embedded query, with vectors supplied by an
// injected Embedder.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/scope"
	"github.com/starford/ansuz/internal/store"
)

// Index computes and queries embeddings over stored nodes.
type Index struct {
	store    *store.Store
	embedder Embedder
}

// NewIndex returns an Index backed by s and e.
func NewIndex(s *store.Store, e Embedder) *Index {
	return &Index{store: s, embedder: e}
}

// Result is one semantic hit. Score is cosine similarity in [-1, 1],
// higher first.
type Result struct {
	FullID  string
	DocID   string
	ShortID string
	Score   float64
}

// EmbedDocument embeds every node of a document under the Embedder's
// model, skipping nodes already embedded unless force is set.
// Re-embedding overwrites the stored vector for (full_id, model) rather
// than duplicating it. Returns the number of vectors written.
func (ix *Index) EmbedDocument(ctx context.Context, docID string, force bool) (int, error) {
	doc, err := ix.store.GetDocument(docID)
	if err != nil {
		return 0, err
	}
	nodes, err := ix.store.NodesForDoc(docID)
	if err != nil {
		return 0, err
	}

	model := ix.embedder.ModelName()
	written := 0
	for _, n := range nodes {
		if !force {
			if _, err := ix.store.Embedding(n.FullID, model); err == nil {
				continue
			} else if !errors.Is(err, apperr.ErrNotFound) {
				return written, err
			}
		}
		text := string(doc.Content[n.Start:n.End])
		vec, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			// Rate-limit and availability errors surface unchanged.
			return written, err
		}
		if len(vec) != ix.embedder.Dimensions() {
			return written, fmt.Errorf("semantic: embedder returned %d dimensions, declared %d", len(vec), ix.embedder.Dimensions())
		}
		if err := ix.store.PutEmbedding(store.EmbeddingRecord{
			FullID:     n.FullID,
			Model:      model,
			Dimensions: len(vec),
			Vector:     EncodeVector(vec),
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// EmbedCorpus embeds every stored document.
func (ix *Index) EmbedCorpus(ctx context.Context, force bool) (int, error) {
	docs, err := ix.store.ListDocuments()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range docs {
		n, err := ix.EmbedDocument(ctx, d.DocID, force)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Query embeds text and returns the top-k stored vectors by cosine
// similarity, highest first, ties broken by insertion order. A zero-norm
// pair scores minimal similarity rather than erroring. A non-nil set
// restricts candidates by full_id or doc_id.
func (ix *Index) Query(ctx context.Context, text string, k int, set scope.Set) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	qv, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	embs, err := ix.store.AllEmbeddings(ix.embedder.ModelName())
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, e := range embs {
		if set != nil && !set.Contains(e.FullID) && !set.Contains(e.DocID) {
			continue
		}
		vec, err := DecodeVector(e.Vector)
		if err != nil {
			return nil, fmt.Errorf("semantic: vector for %s: %w", e.FullID, err)
		}
		out = append(out, Result{
			FullID: e.FullID,
			DocID:  e.DocID,
			Score:  Cosine(qv, vec),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	for i := range out {
		node, err := ix.store.NodeByFullID(out[i].FullID)
		if err != nil {
			return nil, err
		}
		out[i].ShortID = node.ShortID
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths or
// a zero-norm vector score -1, the minimal similarity.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
