package memory

import (
	"math"
	"strings"
	"testing"
)

func TestImportanceScoreWorkedExample(t *testing.T) {
	// 50 chars of conversation at medium priority:
	// 0.5*0.4 + (50/1000)*0.3 + 0.8*0.3 = 0.2 + 0.015 + 0.24 = 0.455
	scorer := NewScorer(DefaultScorerConfig())
	got := scorer.Score(strings.Repeat("x", 50), TypeConversation, PriorityMedium)
	if math.Abs(got-0.455) > 1e-9 {
		t.Errorf("score = %f, want 0.455", got)
	}
}

func TestImportanceScoreTable(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	long := strings.Repeat("x", 2000)

	tests := []struct {
		name    string
		content string
		typ     ContextType
		pri     Priority
		want    float64
	}{
		{"critical insight saturated", long, TypeInsight, PriorityCritical, 1.0},
		{"low conversation empty", "", TypeConversation, PriorityLow, 0.25*0.4 + 0.8*0.3},
		{"high code analysis saturated", long, TypeCodeAnalysis, PriorityHigh, 0.75*0.4 + 0.3 + 0.9*0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.content, tt.typ, tt.pri)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestImportanceScoreBounded(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	for _, typ := range Types() {
		for _, pri := range Priorities() {
			for _, content := range []string{"", "short", strings.Repeat("y", 5000)} {
				got := scorer.Score(content, typ, pri)
				if got < 0 || got > 1 {
					t.Errorf("score(%q, %s, %s) = %f, out of [0,1]", content[:min(len(content), 10)], typ, pri, got)
				}
			}
		}
	}
}

func TestKeywordRelevanceFullMatch(t *testing.T) {
	r := KeywordRanker{}
	got := r.Relevance("database performance", "database performance issue")
	if got != 1.0 {
		t.Errorf("relevance = %f, want 1.0", got)
	}
}

func TestKeywordRelevancePartialMatch(t *testing.T) {
	r := KeywordRanker{}
	got := r.Relevance("database performance tuning", "the database is slow")
	if math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("relevance = %f, want 1/3", got)
	}
}

func TestKeywordRelevanceNoMatch(t *testing.T) {
	r := KeywordRanker{}
	if got := r.Relevance("database performance", "unrelated topic"); got != 0 {
		t.Errorf("relevance = %f, want 0", got)
	}
}

func TestKeywordRelevanceEmptyQuery(t *testing.T) {
	r := KeywordRanker{}
	if got := r.Relevance("", "some content"); got != 0 {
		t.Errorf("relevance = %f, want 0 for empty query", got)
	}
	if got := r.Relevance("   ", "some content"); got != 0 {
		t.Errorf("relevance = %f, want 0 for whitespace query", got)
	}
}

func TestKeywordRelevanceCaseInsensitive(t *testing.T) {
	r := KeywordRanker{}
	if got := r.Relevance("Database", "the DATABASE is here"); got != 1.0 {
		t.Errorf("relevance = %f, want 1.0", got)
	}
}

func TestTypeAndPriorityValidation(t *testing.T) {
	if ContextType("meditation").Valid() {
		t.Error("unknown type should be invalid")
	}
	if Priority("urgent").Valid() {
		t.Error("unknown priority should be invalid")
	}
	for _, typ := range Types() {
		if !typ.Valid() {
			t.Errorf("type %s should be valid", typ)
		}
	}
	for _, pri := range Priorities() {
		if !pri.Valid() {
			t.Errorf("priority %s should be valid", pri)
		}
	}
}
