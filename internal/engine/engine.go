// Package engine composes the chunk store, decay sweeper, and conversation
// curator behind one API surface. The engine is the only writer to the
// durable layer: the in-memory store is the working set, and every mutation
// is mirrored into sqlite best-effort — a persistence failure is logged, not
// surfaced, because the in-memory state remains authoritative.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hermes-labs/keeper/internal/config"
	"github.com/hermes-labs/keeper/internal/curation"
	"github.com/hermes-labs/keeper/internal/memory"
	"github.com/hermes-labs/keeper/internal/store"
)

// Engine is the facade over context memory and conversation curation.
// Construct once at process start and pass by reference; it holds no global
// state.
type Engine struct {
	store      *memory.Store
	sweeper    *memory.Sweeper
	aggregator *memory.Aggregator
	curator    *curation.Curator
	db         *store.DB // nil means memory-only

	autoCurate    bool
	sweepInterval time.Duration

	mu           sync.RWMutex
	summaries    map[string]memory.Summary
	summaryOrder []string

	stopCh chan struct{}
}

// New builds an Engine from configuration. db may be nil for a memory-only
// engine (tests, embedded use).
func New(cfg config.Config, db *store.DB) (*Engine, error) {
	scorer := memory.NewScorer(memory.ScorerConfig{
		PriorityWeight: cfg.Memory.PriorityWeight,
		LengthWeight:   cfg.Memory.LengthWeight,
		TypeWeight:     cfg.Memory.TypeWeight,
		LengthNorm:     cfg.Memory.LengthNorm,
	})

	strategy := memory.NewHeadTail(memory.HeadTailConfig{
		KeepHead:         cfg.Memory.CompressKeepHead,
		KeepTail:         cfg.Memory.CompressKeepTail,
		TailCutoff:       cfg.Memory.CompressTailCutoff,
		SummarySentences: cfg.Memory.SummarySentences,
	})

	var ranker memory.Ranker
	switch cfg.Memory.Ranker {
	case "", "keyword":
		ranker = memory.KeywordRanker{}
	case "vector":
		embedder, err := memory.NewHashEmbedder(cfg.Embedding.Dimensions, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		ranker = memory.NewVectorRanker(embedder)
	default:
		return nil, fmt.Errorf("unknown ranker %q", cfg.Memory.Ranker)
	}

	chunkStore := memory.NewStore(memory.StoreConfig{
		CompressionThreshold: cfg.Memory.CompressionThreshold,
		RelevanceThreshold:   cfg.Memory.RelevanceThreshold,
		DefaultLimit:         cfg.Memory.DefaultLimit,
	}, scorer, ranker, strategy)

	return &Engine{
		store: chunkStore,
		sweeper: memory.NewSweeper(chunkStore, memory.SweeperConfig{
			DecayThreshold:  cfg.Memory.DecayThreshold,
			ImportanceFloor: cfg.Memory.ImportanceFloor,
		}),
		aggregator: memory.NewAggregator(strategy, memory.DefaultAggregatorConfig()),
		curator: curation.NewCurator(curation.Config{
			MessageBudget:     cfg.Curation.MessageBudget,
			TokenBudget:       cfg.Curation.TokenBudget,
			ArchiveRatio:      cfg.Curation.ArchiveRatio,
			SummaryTokenRatio: cfg.Curation.SummaryTokenRatio,
			SummaryTokenFloor: cfg.Curation.SummaryTokenFloor,
		}),
		db:            db,
		autoCurate:    cfg.Curation.AutoCurate,
		sweepInterval: cfg.Memory.SweepInterval,
		summaries:     make(map[string]memory.Summary),
		stopCh:        make(chan struct{}),
	}, nil
}

// LoadFromDB rebuilds the working set from the durable layer. Call once
// before serving.
func (e *Engine) LoadFromDB() error {
	if e.db == nil {
		return nil
	}

	chunks, err := e.db.AllChunks()
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	for _, c := range chunks {
		e.store.Load(c)
	}

	summaries, err := e.db.AllSummaries()
	if err != nil {
		return fmt.Errorf("load summaries: %w", err)
	}
	e.mu.Lock()
	for _, s := range summaries {
		e.summaries[s.ID] = s
		e.summaryOrder = append(e.summaryOrder, s.ID)
	}
	e.mu.Unlock()

	convIDs, err := e.db.AllConversationIDs()
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	for _, id := range convIDs {
		msgs, err := e.db.GetMessages(id)
		if err != nil {
			return fmt.Errorf("load messages for %s: %w", id, err)
		}
		archives, err := e.db.GetConversationSummaries(id)
		if err != nil {
			return fmt.Errorf("load summaries for %s: %w", id, err)
		}
		e.curator.Load(id, msgs, archives)
	}

	if len(chunks) > 0 || len(convIDs) > 0 {
		log.Printf("engine: loaded %d chunks, %d summaries, %d conversations", len(chunks), len(summaries), len(convIDs))
	}
	return nil
}

// StoreContext stores a new context chunk and returns its id.
func (e *Engine) StoreContext(content string, typ memory.ContextType, pri memory.Priority, metadata map[string]string) (string, error) {
	id, err := e.store.Store(content, typ, pri, metadata)
	if err != nil {
		return "", err
	}
	e.persistChunk(id)
	return id, nil
}

// RetrieveContext returns ranked chunk views for the query. The access bumps
// it causes are mirrored to the durable layer.
func (e *Engine) RetrieveContext(query string, typ memory.ContextType, limit int) []memory.Chunk {
	chunks := e.store.Retrieve(query, typ, limit)
	if e.db != nil {
		for _, c := range chunks {
			if err := e.db.TouchChunk(c.ID, c.LastAccessed, c.AccessCount); err != nil {
				log.Printf("engine: touch chunk %s: %v", c.ID, err)
			}
		}
	}
	return chunks
}

// GetChunk returns a single chunk by id without counting an access.
func (e *Engine) GetChunk(id string) (memory.Chunk, error) {
	return e.store.Get(id)
}

// CompressContext compresses a chunk in place. Returns false when there was
// nothing to do.
func (e *Engine) CompressContext(id string) bool {
	if !e.store.Compress(id) {
		return false
	}
	e.persistChunk(id)
	return true
}

// DeleteContext removes a chunk permanently. Returns false if absent.
func (e *Engine) DeleteContext(id string) bool {
	if !e.store.Delete(id) {
		return false
	}
	if e.db != nil {
		if err := e.db.DeleteChunk(id); err != nil {
			log.Printf("engine: delete chunk %s: %v", id, err)
		}
	}
	return true
}

// Summarize aggregates the named chunks into one summary. Unknown ids fail
// with memory.ErrNotFound; empty input with memory.ErrNoChunks.
func (e *Engine) Summarize(ids []string) (memory.Summary, error) {
	chunks := make([]memory.Chunk, 0, len(ids))
	for _, id := range ids {
		c, err := e.store.Get(id)
		if err != nil {
			return memory.Summary{}, err
		}
		chunks = append(chunks, c)
	}

	summary, err := e.aggregator.Summarize(chunks)
	if err != nil {
		return memory.Summary{}, err
	}

	e.mu.Lock()
	e.summaries[summary.ID] = summary
	e.summaryOrder = append(e.summaryOrder, summary.ID)
	e.mu.Unlock()

	if e.db != nil {
		if err := e.db.SaveSummary(summary); err != nil {
			log.Printf("engine: save summary %s: %v", summary.ID, err)
		}
	}
	return summary, nil
}

// GetSummary returns a previously created summary.
func (e *Engine) GetSummary(id string) (memory.Summary, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.summaries[id]
	return s, ok
}

// Summaries returns all aggregated summaries in creation order.
func (e *Engine) Summaries() []memory.Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]memory.Summary, 0, len(e.summaryOrder))
	for _, id := range e.summaryOrder {
		out = append(out, e.summaries[id])
	}
	return out
}

// Stats extends the store's aggregate with the summary count.
type Stats struct {
	memory.Stats
	TotalSummaries int `json:"total_summaries"`
}

// Statistics computes the engine-wide aggregate on demand.
func (e *Engine) Statistics() Stats {
	e.mu.RLock()
	total := len(e.summaries)
	e.mu.RUnlock()
	return Stats{
		Stats:          e.store.Statistics(),
		TotalSummaries: total,
	}
}

// Sweep runs one decay pass and mirrors its transitions to the durable layer.
func (e *Engine) Sweep() memory.SweepResult {
	result := e.sweeper.Sweep()
	if e.db != nil {
		for _, id := range result.Evicted {
			if err := e.db.DeleteChunk(id); err != nil {
				log.Printf("engine: delete swept chunk %s: %v", id, err)
			}
		}
		for _, id := range result.Compressed {
			e.persistChunk(id)
		}
	}
	return result
}

// StartSweepTimer runs a sweep now and then on the configured cadence until
// Stop is called.
func (e *Engine) StartSweepTimer() {
	if r := e.Sweep(); r.Count() > 0 {
		log.Printf("sweep: acted on %d chunks (%d evicted, %d compressed)", r.Count(), len(r.Evicted), len(r.Compressed))
	}

	go func() {
		ticker := time.NewTicker(e.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if r := e.Sweep(); r.Count() > 0 {
					log.Printf("sweep: acted on %d chunks (%d evicted, %d compressed)", r.Count(), len(r.Evicted), len(r.Compressed))
				}
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}

// CreateConversation registers a new conversation and returns its id.
func (e *Engine) CreateConversation() (string, error) {
	id := uuid.NewString()
	if e.db != nil {
		if err := e.db.CreateConversation(id); err != nil {
			return "", err
		}
	}
	return id, nil
}

// AppendMessage appends one turn to a conversation. When auto-curation is
// enabled the budget check runs immediately and the curation result, if any,
// is returned alongside the message.
func (e *Engine) AppendMessage(convID, sender, text string) (curation.Message, *curation.Result, error) {
	msg, err := e.curator.Append(convID, sender, text)
	if err != nil {
		return curation.Message{}, nil, err
	}
	if e.db != nil {
		if err := e.db.AddMessage(convID, msg); err != nil {
			log.Printf("engine: persist message %s: %v", msg.ID, err)
		}
	}

	if !e.autoCurate {
		return msg, nil, nil
	}
	result := e.Curate(convID)
	return msg, &result, nil
}

// Curate runs the budget check for one conversation, persisting any archival
// summary it produces.
func (e *Engine) Curate(convID string) curation.Result {
	result := e.curator.CurateIfOverBudget(convID)
	if result.Summarized && e.db != nil {
		if err := e.db.SaveConversationSummary(*result.Summary); err != nil {
			log.Printf("engine: persist conversation summary %s: %v", result.Summary.ID, err)
		}
	}
	return result
}

// ConversationMessages returns a conversation's full message history.
func (e *Engine) ConversationMessages(convID string) []curation.Message {
	return e.curator.Messages(convID)
}

// ConversationSummaries returns a conversation's archival summaries.
func (e *Engine) ConversationSummaries(convID string) []curation.ArchiveSummary {
	return e.curator.Summaries(convID)
}

// persistChunk mirrors the current state of a chunk into the durable layer.
func (e *Engine) persistChunk(id string) {
	if e.db == nil {
		return
	}
	chunk, err := e.store.Get(id)
	if err != nil {
		return // deleted in the meantime
	}
	if err := e.db.SaveChunk(chunk); err != nil {
		log.Printf("engine: save chunk %s: %v", id, err)
	}
}
