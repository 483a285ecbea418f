package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// BusyTimeoutMs is the bounded wait SQLite gives a writer blocked by another
// connection, per §4.5/§5's tolerance for brief writer overlap.
const BusyTimeoutMs = 3000

// Store is the Index Store: the relational + FTS5 + vector-index
// collaborator described in §4.5, grounded on the teacher's
// internal/store SQLite-FTS5 pattern (sqlite_bm25.go) but holding the
// notes domain's fixed table set instead of a generic document index.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	Vector VectorIndex
}

// Open creates or opens the index database at path (empty path opens an
// in-memory database, used by tests), applying WAL journaling and a
// bounded busy timeout, then ensures the schema exists.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, tomoerrors.IoErr(err, dir)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	// A single connection avoids writer-lock thrashing on the embedded
	// database; the busy timeout absorbs brief reader/writer overlap.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMs),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, tomoerrors.StoreErr(err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	path   TEXT NOT NULL,
	anchor TEXT NOT NULL,
	text   TEXT NOT NULL,
	mtime  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	path,
	anchor,
	text,
	content = 'chunks',
	content_rowid = 'id',
	tokenize = 'unicode61'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, path, anchor, text) VALUES (new.id, new.path, new.anchor, new.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, path, anchor, text) VALUES ('delete', old.id, old.path, old.anchor, old.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, path, anchor, text) VALUES ('delete', old.id, old.path, old.anchor, old.text);
	INSERT INTO chunks_fts(rowid, path, anchor, text) VALUES (new.id, new.path, new.anchor, new.text);
END;

CREATE TABLE IF NOT EXISTS note_links (
	source_path TEXT NOT NULL,
	target_key  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_note_links_source_target ON note_links(source_path, target_key);

CREATE TABLE IF NOT EXISTS note_properties (
	path       TEXT NOT NULL,
	key        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	value_text TEXT,
	value_num  REAL,
	value_bool INTEGER,
	value_date TEXT
);
CREATE INDEX IF NOT EXISTS idx_note_properties_path ON note_properties(path);
CREATE INDEX IF NOT EXISTS idx_note_properties_key ON note_properties(key);
CREATE INDEX IF NOT EXISTS idx_note_properties_key_text ON note_properties(key, value_text);
CREATE INDEX IF NOT EXISTS idx_note_properties_key_num ON note_properties(key, value_num);
CREATE INDEX IF NOT EXISTS idx_note_properties_key_bool ON note_properties(key, value_bool);
CREATE INDEX IF NOT EXISTS idx_note_properties_key_date ON note_properties(key, value_date);

CREATE TABLE IF NOT EXISTS embeddings (
	chunk_id    INTEGER NOT NULL,
	model_label TEXT NOT NULL,
	dim         INTEGER NOT NULL,
	vector      BLOB NOT NULL,
	PRIMARY KEY (chunk_id)
);

CREATE TABLE IF NOT EXISTS note_embeddings (
	path          TEXT NOT NULL PRIMARY KEY,
	model_label   TEXT NOT NULL,
	dim           INTEGER NOT NULL,
	vector        BLOB NOT NULL,
	updated_at_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS semantic_edges (
	source_path   TEXT NOT NULL,
	target_path   TEXT NOT NULL,
	score         REAL NOT NULL,
	model_label   TEXT NOT NULL,
	updated_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_semantic_edges_source ON semantic_edges(source_path);
CREATE INDEX IF NOT EXISTS idx_semantic_edges_target ON semantic_edges(target_path);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return tomoerrors.StoreErr(err)
	}
	return nil
}
