package memory

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// AggregatorConfig tunes the multi-chunk summarizer.
type AggregatorConfig struct {
	MaxKeyPoints    int // key points kept, in source order
	MinKeyPointLen  int // sentences shorter than this are filtered out
	MinEntityLen    int // capitalized tokens must be longer than this
	QualityLenNorm  int // summary length at which the length score saturates
	QualitySentNorm int // sentence count at which the structure score saturates
	LengthWeight    float64
	SentenceWeight  float64
}

// DefaultAggregatorConfig returns the stock tuning.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MaxKeyPoints:    5,
		MinKeyPointLen:  20,
		MinEntityLen:    2,
		QualityLenNorm:  500,
		QualitySentNorm: 5,
		LengthWeight:    0.6,
		SentenceWeight:  0.4,
	}
}

// relationPatterns are the fixed phrases tested for when extracting
// relationships. Absent phrases simply yield no entries.
var relationPatterns = []Relationship{
	{Type: "causation", Description: "caused by"},
	{Type: "relation", Description: "related to"},
	{Type: "dependency", Description: "depends on"},
}

// Aggregator combines N chunks into one synthesized Summary. All derivations
// are extractive string heuristics; the quality score measures informational
// density and structure, not semantic correctness.
type Aggregator struct {
	strategy Strategy
	cfg      AggregatorConfig
}

// NewAggregator creates an Aggregator that summarizes with the given strategy.
func NewAggregator(strategy Strategy, cfg AggregatorConfig) *Aggregator {
	if cfg.MaxKeyPoints <= 0 {
		cfg = DefaultAggregatorConfig()
	}
	return &Aggregator{strategy: strategy, cfg: cfg}
}

// Summarize aggregates the chunks into a single Summary. The source chunk ids
// are recorded in input order. Empty input is a caller error.
func (a *Aggregator) Summarize(chunks []Chunk) (Summary, error) {
	if len(chunks) == 0 {
		return Summary{}, ErrNoChunks
	}

	ids := make([]string, len(chunks))
	tagged := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		tagged[i] = fmt.Sprintf("[%s] %s", c.Type, c.Content)
	}
	combined := strings.Join(tagged, "\n\n")

	_, text := a.strategy.Compress(combined)

	return Summary{
		ID:            uuid.NewString(),
		SourceChunks:  ids,
		Text:          text,
		KeyPoints:     a.keyPoints(combined),
		Entities:      a.entities(combined),
		Relationships: extractRelationships(combined),
		QualityScore:  a.quality(text),
		CreatedAt:     time.Now(),
	}, nil
}

// keyPoints picks the first few substantial sentences in source order.
func (a *Aggregator) keyPoints(content string) []string {
	var points []string
	for _, sentence := range strings.Split(content, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= a.cfg.MinKeyPointLen {
			continue
		}
		points = append(points, sentence)
		if len(points) >= a.cfg.MaxKeyPoints {
			break
		}
	}
	return points
}

// entities collects capitalized tokens, deduplicated in encounter order.
func (a *Aggregator) entities(content string) []string {
	seen := make(map[string]bool)
	var entities []string
	for _, word := range strings.Fields(content) {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(r) || len(word) <= a.cfg.MinEntityLen {
			continue
		}
		if seen[word] {
			continue
		}
		seen[word] = true
		entities = append(entities, word)
	}
	return entities
}

func extractRelationships(content string) []Relationship {
	lower := strings.ToLower(content)
	var rels []Relationship
	for _, p := range relationPatterns {
		if strings.Contains(lower, p.Description) {
			rels = append(rels, p)
		}
	}
	return rels
}

// quality scores a summary on length and sentence count. Explicitly an
// approximation: it says nothing about whether the summary is true.
func (a *Aggregator) quality(summary string) float64 {
	lengthScore := float64(len(summary)) / float64(a.cfg.QualityLenNorm)
	if lengthScore > 1.0 {
		lengthScore = 1.0
	}
	sentenceScore := float64(sentenceCount(summary)) / float64(a.cfg.QualitySentNorm)
	if sentenceScore > 1.0 {
		sentenceScore = 1.0
	}

	q := lengthScore*a.cfg.LengthWeight + sentenceScore*a.cfg.SentenceWeight
	if q > 1.0 {
		q = 1.0
	}
	return q
}
