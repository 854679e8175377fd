package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
)

// EventCallback is called after a watcher-driven store change.
// kind is one of "ingested", "replaced", "deleted".
type EventCallback func(kind string, docID string)

// Watch starts an fsnotify watcher on the corpus root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful store mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a debounced reconciliation pass that removes
// documents whose files no longer exist on disk.
func Watch(ctx context.Context, b *graph.Builder, st *store.Store, provider storage.Provider, corpusRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, corpusRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", corpusRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(ctx, b, st, provider, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list; ingest any documents
			// already inside them.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					ingestNewDir(ctx, b, provider, corpusRoot, absPath, logger, cb)
					continue
				}
			}

			if !storage.IsDocument(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(corpusRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := provider.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				hash, hashErr := st.DocumentHash(rel)
				if hashErr != nil {
					logger.Warn("watcher: hash lookup failed", slog.String("path", rel), slog.String("error", hashErr.Error()))
					continue
				}
				res, ingErr := b.Ingest(ctx, rel, rel, data, hash != "")
				if ingErr != nil {
					logger.Warn("watcher: ingest failed", slog.String("path", rel), slog.String("error", ingErr.Error()))
					continue
				}
				if res.Skipped {
					continue
				}
				kind := "ingested"
				if res.Replaced {
					kind = "replaced"
				}
				logger.Debug("watcher: ingested", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := st.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event if it stays
				// within a watched dir. Delete the old document now and
				// schedule a reconciliation pass for stragglers.
				if delErr := st.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					if cb != nil {
						cb("deleted", rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ingestNewDir ingests any document files found in a newly created
// directory.
func ingestNewDir(ctx context.Context, b *graph.Builder, provider storage.Provider, corpusRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsDocument(path) {
			return nil
		}
		rel, relErr := filepath.Rel(corpusRoot, path)
		if relErr != nil {
			return nil
		}
		data, readErr := provider.Read(rel)
		if readErr != nil {
			return nil
		}
		if _, ingErr := ingestOnce(ctx, b, rel, data); ingErr == nil {
			logger.Debug("watcher: ingested from new dir", slog.String("path", rel))
			if cb != nil {
				cb("ingested", rel)
			}
		}
		return nil
	})
}

func ingestOnce(ctx context.Context, b *graph.Builder, rel string, data []byte) (*graph.Result, error) {
	return b.Ingest(ctx, rel, rel, data, false)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
