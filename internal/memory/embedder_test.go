package memory

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	emb, err := NewHashEmbedder(64, 16)
	if err != nil {
		t.Fatalf("NewHashEmbedder: %v", err)
	}

	a, _ := emb.Embed(context.Background(), "database performance")
	b, _ := emb.Embed(context.Background(), "database performance")

	if len(a) != 64 {
		t.Fatalf("dims = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vector differs at %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	emb, _ := NewHashEmbedder(128, 16)
	vec, _ := emb.Embed(context.Background(), "some text")

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-9 {
		t.Errorf("norm = %f, want 1.0", math.Sqrt(sum))
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	emb, _ := NewHashEmbedder(32, 16)
	vec, err := emb.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"mismatched lengths", []float64{1}, []float64{1, 0}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("similarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestVectorRankerBounds(t *testing.T) {
	emb, _ := NewHashEmbedder(64, 16)
	r := NewVectorRanker(emb)

	if got := r.Relevance("same text", "same text"); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical text relevance = %f, want 1.0", got)
	}

	for _, pair := range [][2]string{
		{"alpha", "beta"},
		{"database performance", "unrelated topic"},
		{"", "content"},
	} {
		got := r.Relevance(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Errorf("relevance(%q, %q) = %f, out of [0,1]", pair[0], pair[1], got)
		}
	}
}

func TestVectorRankerWorksWithStore(t *testing.T) {
	emb, _ := NewHashEmbedder(64, 16)
	s := NewStore(
		DefaultStoreConfig(),
		NewScorer(DefaultScorerConfig()),
		NewVectorRanker(emb),
		NewHeadTail(DefaultHeadTailConfig()),
	)

	id, _ := s.Store("exact query text", TypeConversation, PriorityMedium, nil)

	// Identical text ranks 1.0, well above the threshold.
	results := s.Retrieve("exact query text", "", 5)
	found := false
	for _, c := range results {
		if c.ID == id {
			found = true
		}
	}
	if !found {
		t.Error("chunk with identical text should be retrieved by the vector ranker")
	}
}
