// Package graph builds the span graph for one document: a doc root node,
// one node per parsed block, contains edges forming the heading-hierarchy
// tree, and next edges linking consecutive siblings. Graph construction
// and full-text indexing happen in one store transaction, so a document's
// graph and its search entries appear and disappear together.
package graph

import (
	"bytes"
	"context"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/ident"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/store"
)

// Builder ingests documents into a store.
type Builder struct {
	store *store.Store
}

// NewBuilder returns a Builder writing to s.
func NewBuilder(s *store.Store) *Builder {
	return &Builder{store: s}
}

// Result reports the outcome of one ingest.
type Result struct {
	DocID     string
	Skipped   bool // document already stored with identical content
	Replaced  bool // prior graph was force-replaced
	RootPK    int64
	NodeCount int
}

// Ingest parses data and persists its span graph atomically.
//
// Re-ingesting identical content is a no-op reported via Result.Skipped.
// Changed content requires force; without it the call fails with
// *apperr.DocumentExistsError so the caller can distinguish "identical"
// from "changed" instead of seeing a storage uniqueness violation. With
// force, the prior graph (nodes, edges, index entries, embeddings) is
// deleted inside the same transaction that writes the new one.
func (b *Builder) Ingest(_ context.Context, docID, sourcePath string, data []byte, force bool) (*Result, error) {
	hash := checksum.Sum(data)

	existingHash, err := b.store.DocumentHash(docID)
	if err != nil {
		return nil, err
	}
	exists := existingHash != ""
	if exists && !force {
		if existingHash == hash {
			return &Result{DocID: docID, Skipped: true}, nil
		}
		return nil, &apperr.DocumentExistsError{DocID: docID, ChangedContent: true}
	}

	// Corpus-wide short-ID view, read before any assignment so collision
	// resolution is reproducible.
	shortIDs, err := b.store.AllShortIDs(docID)
	if err != nil {
		return nil, err
	}

	bc := &buildContext{}
	sc := parser.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if err := bc.addBlock(sc.Block()); err != nil {
			return nil, &apperr.MalformedSpanError{DocID: docID, Detail: err.Error()}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	bc.finish()

	in, err := b.store.BeginIngest()
	if err != nil {
		return nil, err
	}
	defer in.Rollback() //nolint:errcheck // best-effort on failure path

	if exists {
		if err := in.DeleteDocument(docID); err != nil {
			return nil, err
		}
	}
	if err := in.PutDocument(store.DocumentRecord{
		DocID:       docID,
		Content:     data,
		ContentHash: hash,
		SourcePath:  sourcePath,
	}); err != nil {
		return nil, err
	}

	rootPK, err := b.insertNode(in, docID, nodeSpec{kind: parser.KindDoc, end: len(data)}, 0, data, shortIDs)
	if err != nil {
		return nil, err
	}

	// lastChild tracks the most recent child per parent for next edges;
	// siblings never link across parents.
	lastChild := make(map[int64]int64)
	pks := make([]int64, len(bc.specs))
	for i, spec := range bc.specs {
		parentPK := rootPK
		if spec.parent != rootParent {
			parentPK = pks[spec.parent]
		}
		pk, err := b.insertNode(in, docID, spec, parentPK, data, shortIDs)
		if err != nil {
			return nil, err
		}
		pks[i] = pk

		if err := in.InsertEdge(parentPK, pk, store.EdgeContains); err != nil {
			return nil, err
		}
		if prev := lastChild[parentPK]; prev != 0 {
			if err := in.InsertEdge(prev, pk, store.EdgeNext); err != nil {
				return nil, err
			}
		}
		lastChild[parentPK] = pk
	}

	if err := in.Commit(); err != nil {
		return nil, err
	}
	return &Result{
		DocID:     docID,
		Replaced:  exists,
		RootPK:    rootPK,
		NodeCount: len(bc.specs) + 1,
	}, nil
}

// insertNode assigns identifiers, writes the node with its parent pointer
// already set, and hands its realized text to the full-text index in the
// same transaction. The assigned short ID is added to the working set so
// later nodes in this ingest see it.
func (b *Builder) insertNode(in *store.Ingest, docID string, spec nodeSpec, parentPK int64, data []byte, shortIDs map[string]struct{}) (int64, error) {
	text := data[spec.start:spec.end]
	fullID := ident.FullID(docID, spec.start, spec.end, string(spec.kind), text)
	shortID, _, err := ident.ShortID(fullID, shortIDs)
	if err != nil {
		return 0, err
	}
	shortIDs[shortID] = struct{}{}

	pk, err := in.InsertNode(store.NodeRecord{
		DocID:    docID,
		Start:    spec.start,
		End:      spec.end,
		Kind:     string(spec.kind),
		Level:    spec.level,
		FullID:   fullID,
		ShortID:  shortID,
		ParentPK: parentPK,
	})
	if err != nil {
		return 0, err
	}
	if err := in.IndexNode(pk, string(text)); err != nil {
		return 0, err
	}
	return pk, nil
}
