// Package curation bounds conversation growth by archiving old message
// prefixes into summaries. Unlike chunk compression, curation operates over an
// ordered append-only log and always keeps recent messages verbatim: messages
// are never truncated, so the full history stays readable for audit.
package curation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator tags archival summaries with the strategy that produced them.
const Generator = "curator_v1"

// PeriodOnEvent marks summaries produced by budget-triggered curation, as
// opposed to any future scheduled variant.
const PeriodOnEvent = "on_event"

// ErrInvalidSender is returned when an appended message names a sender
// outside the closed set.
var ErrInvalidSender = errors.New("invalid sender")

var validSenders = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// Message is one turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveSummary is the durable record of an archived message prefix.
type ArchiveSummary struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	Text            string    `json:"text"`
	Period          string    `json:"period"`
	GeneratedBy     string    `json:"generated_by"`
	ArchivedThrough int       `json:"archived_through"` // messages covered, counted from the start
	CreatedAt       time.Time `json:"created_at"`
}

// Config tunes the budget monitor.
type Config struct {
	MessageBudget     int     // message count that trips curation
	TokenBudget       int     // estimated token count that trips curation
	ArchiveRatio      float64 // oldest share of messages archived per pass
	SummaryTokenRatio float64 // archival summary size as a share of the token budget
	SummaryTokenFloor int     // minimum summary token target
}

// DefaultConfig returns the stock budgets.
func DefaultConfig() Config {
	return Config{
		MessageBudget:     50,
		TokenBudget:       8000,
		ArchiveRatio:      0.6,
		SummaryTokenRatio: 0.1,
		SummaryTokenFloor: 256,
	}
}

// conversation is one append-only window. watermark counts the messages
// already archived; that prefix is never archived again.
type conversation struct {
	mu        sync.Mutex
	messages  []Message
	summaries []ArchiveSummary
	watermark int
}

// Curator monitors per-conversation budgets and archives old prefixes into
// summaries when a budget is exceeded. Safe for concurrent use; curation
// passes for the same conversation are serialized, so concurrent triggers
// collapse into one archival.
type Curator struct {
	mu     sync.RWMutex
	convos map[string]*conversation
	cfg    Config

	now func() time.Time // stubbed in tests
}

// NewCurator creates a Curator with the given budgets.
func NewCurator(cfg Config) *Curator {
	if cfg.MessageBudget <= 0 {
		cfg = DefaultConfig()
	}
	return &Curator{
		convos: make(map[string]*conversation),
		cfg:    cfg,
	}
}

// Append records a message at the end of the conversation, creating the
// window on first use. Order is strictly preserved.
func (c *Curator) Append(convID, sender, text string) (Message, error) {
	if !validSenders[sender] {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}

	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: c.clock()(),
	}

	conv := c.window(convID)
	conv.mu.Lock()
	conv.messages = append(conv.messages, msg)
	conv.mu.Unlock()

	return msg, nil
}

// Messages returns a copy of the conversation's full message history,
// archived prefix included.
func (c *Curator) Messages(convID string) []Message {
	conv := c.window(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// Summaries returns a copy of the conversation's archival summaries in
// creation order.
func (c *Curator) Summaries(convID string) []ArchiveSummary {
	conv := c.window(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]ArchiveSummary, len(conv.summaries))
	copy(out, conv.summaries)
	return out
}

// Load restores a conversation window from the durable layer. The watermark
// resumes from the furthest archived prefix.
func (c *Curator) Load(convID string, msgs []Message, summaries []ArchiveSummary) {
	conv := c.window(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.messages = append([]Message(nil), msgs...)
	conv.summaries = append([]ArchiveSummary(nil), summaries...)
	conv.watermark = 0
	for _, s := range summaries {
		if s.ArchivedThrough > conv.watermark {
			conv.watermark = s.ArchivedThrough
		}
	}
}

// Result reports the outcome of a curation check.
type Result struct {
	Summarized     bool            `json:"summarized"`
	Summary        *ArchiveSummary `json:"summary,omitempty"`
	TotalMessages  int             `json:"total_messages"`
	TotalTokens    int             `json:"total_tokens"`
	BudgetMessages int             `json:"budget_messages"`
	BudgetTokens   int             `json:"budget_tokens"`
}

// CurateIfOverBudget archives the oldest un-archived share of the
// conversation into one summary when either budget is exceeded. The archived
// prefix advances monotonically: a second call with no new messages finds
// nothing left to archive and is a no-op.
func (c *Curator) CurateIfOverBudget(convID string) Result {
	conv := c.window(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	total := len(conv.messages)
	tokens := EstimateMessages(conv.messages)

	result := Result{
		TotalMessages:  total,
		TotalTokens:    tokens,
		BudgetMessages: c.cfg.MessageBudget,
		BudgetTokens:   c.cfg.TokenBudget,
	}

	if total <= c.cfg.MessageBudget && tokens <= c.cfg.TokenBudget {
		return result
	}

	// Archive the oldest share, keeping the newest verbatim. Recent turns
	// carry the active working context.
	cutoff := int(float64(total) * c.cfg.ArchiveRatio)
	if cutoff <= conv.watermark {
		// Everything up to the cutoff is already archived.
		return result
	}

	targetTokens := int(float64(c.cfg.TokenBudget) * c.cfg.SummaryTokenRatio)
	if targetTokens < c.cfg.SummaryTokenFloor {
		targetTokens = c.cfg.SummaryTokenFloor
	}

	summary := ArchiveSummary{
		ID:              uuid.NewString(),
		ConversationID:  convID,
		Text:            summarizeMessages(conv.messages[conv.watermark:cutoff], targetTokens),
		Period:          PeriodOnEvent,
		GeneratedBy:     Generator,
		ArchivedThrough: cutoff,
		CreatedAt:       c.clock()(),
	}

	conv.summaries = append(conv.summaries, summary)
	conv.watermark = cutoff

	result.Summarized = true
	result.Summary = &summary
	return result
}

// summarizeMessages is the greedy extractive pass: each message's first
// sentence tagged with its sender, accumulated until the token target is
// spent.
func summarizeMessages(msgs []Message, targetTokens int) string {
	var parts []string
	budget := targetTokens
	for _, m := range msgs {
		txt := strings.TrimSpace(m.Text)
		if txt == "" {
			continue
		}
		sentence := strings.SplitN(txt, ". ", 2)[0]
		parts = append(parts, fmt.Sprintf("[%s] %s", m.Sender, sentence))
		budget -= EstimateTokens(sentence)
		if budget <= 0 {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	header := "[" + Generator + "] Conversation summary (extractive)"
	return header + "\n" + strings.Join(parts, "\n")
}

// window returns the conversation for id, creating it on first use.
func (c *Curator) window(convID string) *conversation {
	c.mu.RLock()
	conv := c.convos[convID]
	c.mu.RUnlock()
	if conv != nil {
		return conv
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conv = c.convos[convID]; conv == nil {
		conv = &conversation{}
		c.convos[convID] = conv
	}
	return conv
}

func (c *Curator) clock() func() time.Time {
	if c.now != nil {
		return c.now
	}
	return time.Now
}
