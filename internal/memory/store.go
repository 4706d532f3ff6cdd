package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreConfig tunes the chunk store.
type StoreConfig struct {
	CompressionThreshold int     // content shorter than this is never compressed
	RelevanceThreshold   float64 // retrieval drops chunks at or below this score
	DefaultLimit         int     // Retrieve limit when the caller passes <= 0
}

// DefaultStoreConfig returns the stock tuning.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		CompressionThreshold: 100,
		RelevanceThreshold:   0.3,
		DefaultLimit:         10,
	}
}

// chunkEntry pairs a chunk with its own mutex so mutations on different
// chunks never block each other. The map lock only guards membership.
type chunkEntry struct {
	mu    sync.Mutex
	chunk Chunk
}

// Store owns the set of context chunks. It is an in-process working set; a
// durable layer, if any, mirrors its mutations (see the engine package).
// Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]*chunkEntry

	scorer   Scorer
	ranker   Ranker
	strategy Strategy
	cfg      StoreConfig

	now func() time.Time // stubbed in tests
}

// NewStore creates a Store wired with the given scoring, ranking, and
// compression strategies.
func NewStore(cfg StoreConfig, scorer Scorer, ranker Ranker, strategy Strategy) *Store {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	return &Store{
		chunks:   make(map[string]*chunkEntry),
		scorer:   scorer,
		ranker:   ranker,
		strategy: strategy,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Store creates a new chunk and returns its id. The importance score is
// computed once, here; only compression may later revise the stored content,
// never the score.
func (s *Store) Store(content string, typ ContextType, pri Priority, metadata map[string]string) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if !pri.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, pri)
	}

	now := s.now()
	chunk := Chunk{
		ID:              uuid.NewString(),
		Content:         content,
		Type:            typ,
		Priority:        pri,
		CreatedAt:       now,
		LastAccessed:    now,
		AccessCount:     1,
		ImportanceScore: s.scorer.Score(content, typ, pri),
		Metadata:        copyMetadata(metadata),
	}

	s.mu.Lock()
	s.chunks[chunk.ID] = &chunkEntry{chunk: chunk}
	s.mu.Unlock()

	return chunk.ID, nil
}

// Load inserts a previously persisted chunk as-is, without rescoring.
// Used to rebuild the working set from the durable layer at startup.
func (s *Store) Load(chunk Chunk) {
	s.mu.Lock()
	s.chunks[chunk.ID] = &chunkEntry{chunk: chunk}
	s.mu.Unlock()
}

// Get returns a copy of the chunk with the given id. It does not count as an
// access; only Retrieve feeds the retention signal.
func (s *Store) Get(id string) (Chunk, error) {
	entry := s.entry(id)
	if entry == nil {
		return Chunk{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry.mu.Lock()
	chunk := entry.chunk
	entry.mu.Unlock()
	return chunk, nil
}

// Retrieve ranks all chunks (optionally filtered by type) against the query,
// drops everything at or below the relevance threshold, and returns the top
// chunks by score, ties broken by most recent access. Every returned chunk
// has its access count bumped — retrieval is itself a signal of continued
// relevance that the decay sweeper later consults. Never errors: no matches
// is an empty slice, and typ == "" means all types.
func (s *Store) Retrieve(query string, typ ContextType, limit int) []Chunk {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	type scored struct {
		entry     *chunkEntry
		chunk     Chunk
		relevance float64
	}

	var candidates []scored
	for _, entry := range s.entries() {
		entry.mu.Lock()
		chunk := entry.chunk
		entry.mu.Unlock()

		if typ != "" && chunk.Type != typ {
			continue
		}
		rel := s.ranker.Relevance(query, chunk.Content)
		if rel > s.cfg.RelevanceThreshold {
			candidates = append(candidates, scored{entry: entry, chunk: chunk, relevance: rel})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].relevance != candidates[j].relevance {
			return candidates[i].relevance > candidates[j].relevance
		}
		return candidates[i].chunk.LastAccessed.After(candidates[j].chunk.LastAccessed)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	now := s.now()
	results := make([]Chunk, 0, len(candidates))
	for _, c := range candidates {
		c.entry.mu.Lock()
		c.entry.chunk.AccessCount++
		if now.After(c.entry.chunk.LastAccessed) {
			c.entry.chunk.LastAccessed = now
		}
		results = append(results, c.entry.chunk)
		c.entry.mu.Unlock()
	}
	return results
}

// Compress irreversibly replaces the chunk's content with its compressed form
// and records the extracted summary. Returns false when there is nothing to
// do: unknown id, already compressed, or content below the threshold.
func (s *Store) Compress(id string) bool {
	entry := s.entry(id)
	if entry == nil {
		return false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.chunk.Compressed || len(entry.chunk.Content) < s.cfg.CompressionThreshold {
		return false
	}

	compressed, summary := s.strategy.Compress(entry.chunk.Content)
	entry.chunk.Content = compressed
	entry.chunk.Summary = summary
	entry.chunk.Compressed = true
	return true
}

// Delete removes the chunk permanently. Returns false if it was absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[id]; !ok {
		return false
	}
	delete(s.chunks, id)
	return true
}

// Stats is a read-only aggregate over the current chunk set, computed on
// demand so it is always consistent with current state.
type Stats struct {
	TotalChunks      int                 `json:"total_chunks"`
	CompressedChunks int                 `json:"compressed_chunks"`
	ByType           map[ContextType]int `json:"type_distribution"`
	ByPriority       map[Priority]int    `json:"priority_distribution"`
	CompressionRate  float64             `json:"compression_rate"`
}

// Statistics computes aggregate counts over the live chunk set.
func (s *Store) Statistics() Stats {
	stats := Stats{
		ByType:     make(map[ContextType]int),
		ByPriority: make(map[Priority]int),
	}

	for _, entry := range s.entries() {
		entry.mu.Lock()
		chunk := entry.chunk
		entry.mu.Unlock()

		stats.TotalChunks++
		if chunk.Compressed {
			stats.CompressedChunks++
		}
		stats.ByType[chunk.Type]++
		stats.ByPriority[chunk.Priority]++
	}

	if stats.TotalChunks > 0 {
		stats.CompressionRate = float64(stats.CompressedChunks) / float64(stats.TotalChunks)
	}
	return stats
}

// entry returns the live entry for id, or nil.
func (s *Store) entry(id string) *chunkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[id]
}

// entries snapshots the current entry pointers. Callers lock each entry
// individually; a concurrently deleted entry is simply an orphan whose
// mutation is harmless.
func (s *Store) entries() []*chunkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*chunkEntry, 0, len(s.chunks))
	for _, e := range s.chunks {
		out = append(out, e)
	}
	return out
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
