package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hermes-labs/keeper/internal/memory"
)

// SaveSummary persists an aggregated summary. Summaries are immutable, so
// this is insert-only.
func (db *DB) SaveSummary(s memory.Summary) error {
	sources, err := json.Marshal(s.SourceChunks)
	if err != nil {
		return fmt.Errorf("marshal summary sources: %w", err)
	}
	keyPoints, err := json.Marshal(s.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}
	entities, err := json.Marshal(s.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	relationships, err := json.Marshal(s.Relationships)
	if err != nil {
		return fmt.Errorf("marshal relationships: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO context_summaries (id, source_chunks, summary, key_points, entities, relationships, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, sources, s.Text, keyPoints, entities, relationships, s.QualityScore, s.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// AllSummaries returns every persisted summary in creation order.
func (db *DB) AllSummaries() ([]memory.Summary, error) {
	rows, err := db.Query(`
		SELECT id, source_chunks, summary, key_points, entities, relationships, quality, created_at
		FROM context_summaries ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("all summaries: %w", err)
	}
	defer rows.Close()

	var summaries []memory.Summary
	for rows.Next() {
		var s memory.Summary
		var sources, keyPoints, entities, relationships []byte
		var createdAt int64
		if err := rows.Scan(&s.ID, &sources, &s.Text, &keyPoints, &entities, &relationships, &s.QualityScore, &createdAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if err := json.Unmarshal(sources, &s.SourceChunks); err != nil {
			return nil, fmt.Errorf("unmarshal summary sources: %w", err)
		}
		if len(keyPoints) > 0 {
			if err := json.Unmarshal(keyPoints, &s.KeyPoints); err != nil {
				return nil, fmt.Errorf("unmarshal key points: %w", err)
			}
		}
		if len(entities) > 0 {
			if err := json.Unmarshal(entities, &s.Entities); err != nil {
				return nil, fmt.Errorf("unmarshal entities: %w", err)
			}
		}
		if len(relationships) > 0 {
			if err := json.Unmarshal(relationships, &s.Relationships); err != nil {
				return nil, fmt.Errorf("unmarshal relationships: %w", err)
			}
		}
		s.CreatedAt = time.UnixMilli(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountSummaries returns the number of persisted summaries.
func (db *DB) CountSummaries() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM context_summaries").Scan(&n)
	return n, err
}
