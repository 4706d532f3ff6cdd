package memory

import "strings"

// ScorerConfig holds the importance scoring weights. The three weights sum to
// 1.0 so the composite score stays in [0,1].
type ScorerConfig struct {
	PriorityWeight float64
	LengthWeight   float64
	TypeWeight     float64
	LengthNorm     int // content length at which the length component saturates
}

// DefaultScorerConfig returns the stock weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		PriorityWeight: 0.4,
		LengthWeight:   0.3,
		TypeWeight:     0.3,
		LengthNorm:     1000,
	}
}

// Scorer computes importance scores for chunks at store time.
// Deliberately free of external calls so Store never blocks on scoring.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(cfg ScorerConfig) Scorer {
	if cfg.LengthNorm <= 0 {
		cfg.LengthNorm = 1000
	}
	return Scorer{cfg: cfg}
}

// Score estimates a chunk's long-term retention value in [0,1] from its
// priority, content length, and type.
func (s Scorer) Score(content string, typ ContextType, pri Priority) float64 {
	base := pri.Weight() * s.cfg.PriorityWeight

	lengthComponent := float64(len(content)) / float64(s.cfg.LengthNorm)
	if lengthComponent > 1.0 {
		lengthComponent = 1.0
	}
	lengthComponent *= s.cfg.LengthWeight

	typeComponent := typeWeights[typ] * s.cfg.TypeWeight

	score := base + lengthComponent + typeComponent
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Ranker scores a chunk's match to a retrieval query. Implementations must be
// pure functions over the two strings returning a value in [0,1]; the store
// only ever ranks with the result, never mutates through it.
type Ranker interface {
	Relevance(query, content string) float64
}

// KeywordRanker ranks by lower-cased word overlap: the share of query tokens
// that also appear in the content. A deployment wanting semantic ranking
// swaps in VectorRanker without touching the store.
type KeywordRanker struct{}

// Relevance returns |query tokens ∩ content tokens| / |query tokens|,
// or 0 for an empty query.
func (KeywordRanker) Relevance(query, content string) float64 {
	queryWords := tokenSet(query)
	if len(queryWords) == 0 {
		return 0
	}
	contentWords := tokenSet(content)

	matched := 0
	for w := range queryWords {
		if contentWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
