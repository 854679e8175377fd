// Package store provides SQLite-backed persistence for documents, span
// nodes, edges, and embeddings, plus the full-text index built during
// ingest. FTS5 or a LIKE fallback is selected by the sqlite_fts5 build tag.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stamped into PRAGMA user_version. Bump it together with
// a migration case in migrate when the schema changes.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id       TEXT PRIMARY KEY,
	content      BLOB NOT NULL,
	content_hash TEXT NOT NULL,
	source_path  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS nodes (
	node_pk        INTEGER PRIMARY KEY,
	doc_id         TEXT NOT NULL REFERENCES documents(doc_id),
	start_offset   INTEGER NOT NULL,
	end_offset     INTEGER NOT NULL,
	kind           TEXT NOT NULL,
	level          INTEGER NOT NULL DEFAULT 0,
	full_id        TEXT NOT NULL UNIQUE,
	short_id       TEXT NOT NULL UNIQUE,
	parent_node_pk INTEGER REFERENCES nodes(node_pk)
);

CREATE INDEX IF NOT EXISTS idx_nodes_doc ON nodes(doc_id, start_offset);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_node_pk);

CREATE TABLE IF NOT EXISTS edges (
	from_pk INTEGER NOT NULL REFERENCES nodes(node_pk),
	to_pk   INTEGER NOT NULL REFERENCES nodes(node_pk),
	type    TEXT NOT NULL CHECK (type IN ('contains', 'next')),
	UNIQUE(from_pk, to_pk, type)
);

CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_pk, type);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_pk, type);

CREATE TABLE IF NOT EXISTS embeddings (
	full_id    TEXT NOT NULL,
	model      TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	vector     BLOB NOT NULL,
	UNIQUE(full_id, model)
);
`

// Store wraps a sql.DB with graph-specific operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database, applies the schema, and
// stamps the schema version.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{conn: conn}, nil
}

// migrate applies the schema and advances user_version. A store written by
// a newer schema is rejected rather than silently misread.
func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("store: schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		return fmt.Errorf("store: apply fts schema: %w", err)
	}
	if version < schemaVersion {
		if _, err := conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
			return fmt.Errorf("store: stamp schema version: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
