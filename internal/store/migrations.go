package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "context_chunks: durable mirror of the working set",
		SQL: `
CREATE TABLE context_chunks (
    id            TEXT PRIMARY KEY,
    content       TEXT NOT NULL,
    type          TEXT NOT NULL CHECK (type IN ('conversation', 'code_analysis', 'debate_session', 'insight', 'training_data', 'user_feedback')),
    priority      TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high', 'critical')),
    created_at    INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL,
    access_count  INTEGER NOT NULL DEFAULT 1,
    importance    REAL NOT NULL,
    compressed    INTEGER NOT NULL DEFAULT 0,
    summary       TEXT,
    metadata      TEXT
);

CREATE INDEX idx_chunks_type          ON context_chunks(type);
CREATE INDEX idx_chunks_last_accessed ON context_chunks(last_accessed);
`,
	},
	{
		Version:     2,
		Description: "context_summaries: aggregated summaries, never auto-deleted",
		SQL: `
CREATE TABLE context_summaries (
    id            TEXT PRIMARY KEY,
    source_chunks TEXT NOT NULL,
    summary       TEXT NOT NULL,
    key_points    TEXT,
    entities      TEXT,
    relationships TEXT,
    quality       REAL NOT NULL,
    created_at    INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "conversations + messages: append-only history",
		SQL: `
CREATE TABLE conversations (
    id         TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);

CREATE TABLE messages (
    id              TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    sender          TEXT NOT NULL CHECK (sender IN ('user', 'assistant', 'system')),
    content         TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    FOREIGN KEY (conversation_id) REFERENCES conversations(id)
);

CREATE INDEX idx_messages_conversation ON messages(conversation_id, created_at);
`,
	},
	{
		Version:     4,
		Description: "conversation_summaries: archival records with watermark",
		SQL: `
CREATE TABLE conversation_summaries (
    id               TEXT PRIMARY KEY,
    conversation_id  TEXT NOT NULL,
    summary          TEXT NOT NULL,
    period           TEXT NOT NULL,
    generated_by     TEXT NOT NULL,
    archived_through INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,
    FOREIGN KEY (conversation_id) REFERENCES conversations(id)
);

CREATE INDEX idx_conv_summaries ON conversation_summaries(conversation_id, created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
