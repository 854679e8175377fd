// Package watch keeps the graph store in step with a corpus directory:
// a one-shot reconciliation pass plus an fsnotify watcher that ingests
// created and changed files and drops documents whose files are gone.
package watch

import (
	"context"
	"log/slog"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
)

// Sync walks the corpus and brings the store up to date:
//   - new and changed files are ingested (changed ones force-replaced)
//   - documents whose files were removed from disk are deleted
func Sync(ctx context.Context, b *graph.Builder, st *store.Store, provider storage.Provider, logger *slog.Logger) error {
	metas, err := provider.List("")
	if err != nil {
		return err
	}

	docs, err := st.ListDocuments()
	if err != nil {
		return err
	}
	stored := make(map[string]string, len(docs))
	for _, d := range docs {
		stored[d.DocID] = d.ContentHash
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if stored[m.Path] == m.Checksum {
			continue
		}
		data, err := provider.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		_, exists := stored[m.Path]
		if err := ingest(ctx, b, m.Path, data, exists); err != nil {
			logger.Warn("sync: ingest failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: ingested", slog.String("path", m.Path))
		}
	}

	// Remove stale documents.
	for docID := range stored {
		if _, ok := disk[docID]; !ok {
			if err := st.DeleteDocument(docID); err != nil {
				logger.Warn("sync: delete failed", slog.String("doc_id", docID), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("doc_id", docID))
			}
		}
	}

	return nil
}

// ingest runs one builder ingest with the file path as doc_id and source
// path.
func ingest(ctx context.Context, b *graph.Builder, path string, data []byte, force bool) error {
	_, err := b.Ingest(ctx, path, path, data, force)
	return err
}
