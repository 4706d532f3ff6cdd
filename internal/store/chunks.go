package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hermes-labs/keeper/internal/memory"
)

// SaveChunk inserts or replaces the durable copy of a chunk. Used both at
// store time and after compression changes content in place.
func (db *DB) SaveChunk(c memory.Chunk) error {
	var metadata []byte
	if len(c.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
	}

	compressed := 0
	if c.Compressed {
		compressed = 1
	}

	_, err := db.Exec(`
		INSERT INTO context_chunks (id, content, type, priority, created_at, last_accessed, access_count, importance, compressed, summary, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			last_accessed = excluded.last_accessed,
			access_count = excluded.access_count,
			compressed = excluded.compressed,
			summary = excluded.summary
	`, c.ID, c.Content, string(c.Type), string(c.Priority),
		c.CreatedAt.UnixMilli(), c.LastAccessed.UnixMilli(), c.AccessCount,
		c.ImportanceScore, compressed, c.Summary, metadata)
	if err != nil {
		return fmt.Errorf("save chunk: %w", err)
	}
	return nil
}

// TouchChunk records a retrieval's access bump.
func (db *DB) TouchChunk(id string, lastAccessed time.Time, accessCount int) error {
	_, err := db.Exec(`
		UPDATE context_chunks SET last_accessed = ?, access_count = ? WHERE id = ?
	`, lastAccessed.UnixMilli(), accessCount, id)
	if err != nil {
		return fmt.Errorf("touch chunk: %w", err)
	}
	return nil
}

// DeleteChunk removes the durable copy of a chunk.
func (db *DB) DeleteChunk(id string) error {
	_, err := db.Exec("DELETE FROM context_chunks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	return nil
}

// AllChunks returns every persisted chunk, used to rebuild the working set at
// startup.
func (db *DB) AllChunks() ([]memory.Chunk, error) {
	rows, err := db.Query(`
		SELECT id, content, type, priority, created_at, last_accessed, access_count, importance, compressed, COALESCE(summary, ''), metadata
		FROM context_chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("all chunks: %w", err)
	}
	defer rows.Close()

	var chunks []memory.Chunk
	for rows.Next() {
		var c memory.Chunk
		var typ, pri string
		var createdAt, lastAccessed int64
		var compressed int
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.Content, &typ, &pri, &createdAt, &lastAccessed,
			&c.AccessCount, &c.ImportanceScore, &compressed, &c.Summary, &metadata); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Type = memory.ContextType(typ)
		c.Priority = memory.Priority(pri)
		c.CreatedAt = time.UnixMilli(createdAt)
		c.LastAccessed = time.UnixMilli(lastAccessed)
		c.Compressed = compressed != 0
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountChunks returns the number of persisted chunks.
func (db *DB) CountChunks() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM context_chunks").Scan(&n)
	return n, err
}
