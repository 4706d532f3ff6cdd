package memory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder generates vector embeddings for text. The engine only ever uses
// embeddings to rank, never to mutate storage, so any fixed-length numeric
// vector source can be substituted.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
	Dimensions() int
}

// HashEmbedder is a deterministic stand-in for a real embedding model: a
// sha256-seeded rolling hash expanded to an L2-normalized vector in [-1,1].
// Repeatable, dependency-free, and obviously not semantic — it exists so the
// vector path can be exercised and swapped for a real model later.
type HashEmbedder struct {
	dims  int
	cache *lru.Cache[string, []float64]
}

// NewHashEmbedder creates a hash embedder with the given dimensionality and
// an LRU memoization cache of cacheSize texts.
func NewHashEmbedder(dims, cacheSize int) (*HashEmbedder, error) {
	if dims <= 0 {
		dims = 256
	}
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embed cache: %w", err)
	}
	return &HashEmbedder{dims: dims, cache: cache}, nil
}

func (h *HashEmbedder) Model() string   { return "hash-v1" }
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Embed returns the deterministic pseudo-embedding for text. Never errors.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if vec, ok := h.cache.Get(text); ok {
		return vec, nil
	}

	vec := make([]float64, h.dims)
	if text == "" {
		return vec, nil
	}

	digest := sha256.Sum256([]byte(text))
	acc := 0
	for i := 0; i < h.dims; i++ {
		acc = (acc + int(digest[i%len(digest)])) % 256
		vec[i] = float64(acc)/255.0*2.0 - 1.0
	}
	normalize(vec)

	h.cache.Add(text, vec)
	return vec, nil
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// VectorRanker is the embedding-backed alternative to KeywordRanker: cosine
// similarity of the two texts' vectors, clamped to [0,1]. Rank-only; it never
// touches storage.
type VectorRanker struct {
	embedder Embedder
}

// NewVectorRanker wraps an embedder as a Ranker.
func NewVectorRanker(embedder Embedder) VectorRanker {
	return VectorRanker{embedder: embedder}
}

// Relevance embeds both texts and returns their clamped cosine similarity.
// Embedding failures rank as 0 rather than erroring — the Ranker contract is
// total.
func (r VectorRanker) Relevance(query, content string) float64 {
	ctx := context.Background()
	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return 0
	}
	cv, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return 0
	}

	sim := CosineSimilarity(qv, cv)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
