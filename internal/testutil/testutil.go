// Package testutil provides shared test helpers for setting up stores and
// corpus directories.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned
// up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestCorpus creates a temporary corpus directory with a storage.Provider.
func TestCorpus(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	provider, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, provider
}
