// Package storage defines the corpus file-system abstraction. Ingest only
// ever reads source files; documents are owned by their authors and the
// graph store never writes them back.
package storage

import "time"

// FileMeta is lightweight metadata for one corpus file.
type FileMeta struct {
	Path      string // relative to the corpus root
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the read-side interface over a document corpus.
type Provider interface {
	// List returns metadata for every document file under dir (relative
	// to the corpus root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the
	// corpus root).
	Read(path string) ([]byte, error)
}
