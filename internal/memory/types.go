package memory

import (
	"time"
)

// ContextType tags a chunk with the kind of context it holds.
type ContextType string

const (
	TypeConversation  ContextType = "conversation"
	TypeCodeAnalysis  ContextType = "code_analysis"
	TypeDebateSession ContextType = "debate_session"
	TypeInsight       ContextType = "insight"
	TypeTrainingData  ContextType = "training_data"
	TypeUserFeedback  ContextType = "user_feedback"
)

// typeWeights feeds the type component of the importance score. Insights are
// distilled knowledge and weigh the most; raw conversation the least.
var typeWeights = map[ContextType]float64{
	TypeConversation:  0.8,
	TypeCodeAnalysis:  0.9,
	TypeDebateSession: 0.95,
	TypeInsight:       1.0,
	TypeTrainingData:  0.9,
	TypeUserFeedback:  0.85,
}

// Valid reports whether t is a member of the closed type set.
func (t ContextType) Valid() bool {
	_, ok := typeWeights[t]
	return ok
}

// Types returns all valid context types.
func Types() []ContextType {
	return []ContextType{
		TypeConversation, TypeCodeAnalysis, TypeDebateSession,
		TypeInsight, TypeTrainingData, TypeUserFeedback,
	}
}

// Priority is the caller-declared retention priority of a chunk.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityWeights = map[Priority]float64{
	PriorityLow:      0.25,
	PriorityMedium:   0.5,
	PriorityHigh:     0.75,
	PriorityCritical: 1.0,
}

// Valid reports whether p is a member of the closed priority set.
func (p Priority) Valid() bool {
	_, ok := priorityWeights[p]
	return ok
}

// Weight returns the base score contribution for the priority level.
func (p Priority) Weight() float64 {
	return priorityWeights[p]
}

// Priorities returns all valid priority levels, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// Chunk is a unit of retained context. Chunks are owned by the Store; callers
// only ever see value copies.
type Chunk struct {
	ID              string            `json:"id"`
	Content         string            `json:"content"`
	Type            ContextType       `json:"type"`
	Priority        Priority          `json:"priority"`
	CreatedAt       time.Time         `json:"created_at"`
	LastAccessed    time.Time         `json:"last_accessed"`
	AccessCount     int               `json:"access_count"`
	ImportanceScore float64           `json:"importance_score"`
	Compressed      bool              `json:"compressed"`
	Summary         string            `json:"summary,omitempty"` // set iff Compressed
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Relationship is a phrase-level relation detected in aggregated content.
type Relationship struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Summary is the immutable output of aggregating multiple chunks. Summaries
// are the durable record that survives chunk eviction.
type Summary struct {
	ID            string         `json:"id"`
	SourceChunks  []string       `json:"source_chunks"` // in input order
	Text          string         `json:"text"`
	KeyPoints     []string       `json:"key_points"`
	Entities      []string       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	QualityScore  float64        `json:"quality_score"`
	CreatedAt     time.Time      `json:"created_at"`
}
