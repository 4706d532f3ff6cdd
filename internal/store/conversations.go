package store

import (
	"fmt"
	"time"

	"github.com/hermes-labs/keeper/internal/curation"
)

// CreateConversation records a new conversation id. Idempotent.
func (db *DB) CreateConversation(id string) error {
	_, err := db.Exec(`
		INSERT INTO conversations (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// AllConversationIDs returns every conversation id, oldest first.
func (db *DB) AllConversationIDs() ([]string, error) {
	rows, err := db.Query("SELECT id FROM conversations ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("all conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMessage appends a message to the conversation's durable log.
func (db *DB) AddMessage(convID string, m curation.Message) error {
	_, err := db.Exec(`
		INSERT INTO messages (id, conversation_id, sender, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, convID, m.Sender, m.Text, m.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// GetMessages returns the conversation's messages in append order.
func (db *DB) GetMessages(convID string) ([]curation.Message, error) {
	rows, err := db.Query(`
		SELECT id, sender, content, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, id
	`, convID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var msgs []curation.Message
	for rows.Next() {
		var m curation.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveConversationSummary persists an archival summary. Insert-only; the
// archived prefix it covers is never re-derived.
func (db *DB) SaveConversationSummary(s curation.ArchiveSummary) error {
	_, err := db.Exec(`
		INSERT INTO conversation_summaries (id, conversation_id, summary, period, generated_by, archived_through, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.ConversationID, s.Text, s.Period, s.GeneratedBy, s.ArchivedThrough, s.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save conversation summary: %w", err)
	}
	return nil
}

// GetConversationSummaries returns a conversation's archival summaries in
// creation order.
func (db *DB) GetConversationSummaries(convID string) ([]curation.ArchiveSummary, error) {
	rows, err := db.Query(`
		SELECT id, conversation_id, summary, period, generated_by, archived_through, created_at
		FROM conversation_summaries WHERE conversation_id = ? ORDER BY created_at, id
	`, convID)
	if err != nil {
		return nil, fmt.Errorf("get conversation summaries: %w", err)
	}
	defer rows.Close()

	var summaries []curation.ArchiveSummary
	for rows.Next() {
		var s curation.ArchiveSummary
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.ConversationID, &s.Text, &s.Period, &s.GeneratedBy, &s.ArchivedThrough, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation summary: %w", err)
		}
		s.CreatedAt = time.UnixMilli(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
