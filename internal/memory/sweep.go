package memory

import (
	"log"
	"time"
)

// SweeperConfig tunes the decay pass.
type SweeperConfig struct {
	// DecayThreshold is the time since last access after which a chunk is
	// considered decayed.
	DecayThreshold time.Duration
	// ImportanceFloor splits decayed chunks: below it they are evicted,
	// at or above it they are compressed in place so a retrievable trace
	// survives.
	ImportanceFloor float64
}

// DefaultSweeperConfig returns the stock thresholds.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		DecayThreshold:  30 * 24 * time.Hour,
		ImportanceFloor: 0.5,
	}
}

// SweepResult reports the chunks a sweep acted on, by id.
type SweepResult struct {
	Evicted    []string `json:"evicted"`
	Compressed []string `json:"compressed"`
}

// Count returns the total number of chunks acted upon.
func (r SweepResult) Count() int {
	return len(r.Evicted) + len(r.Compressed)
}

// Sweeper is the maintenance pass over a Store. Each chunk transition is
// independent and idempotent, so concurrent or repeated sweeps are safe; a
// chunk retrieved mid-sweep is re-checked under its lock and survives.
type Sweeper struct {
	store *Store
	cfg   SweeperConfig
}

// NewSweeper creates a Sweeper over the given store.
func NewSweeper(store *Store, cfg SweeperConfig) *Sweeper {
	if cfg.DecayThreshold <= 0 {
		cfg = DefaultSweeperConfig()
	}
	return &Sweeper{store: store, cfg: cfg}
}

// Sweep runs one full decay pass over the current chunk set: stale
// low-importance chunks are evicted, stale high-importance chunks are
// compressed. Runs to completion; a chunk that cannot transition does not
// abort the rest of the pass.
func (sw *Sweeper) Sweep() SweepResult {
	var result SweepResult
	now := sw.store.now()

	for _, entry := range sw.store.entries() {
		entry.mu.Lock()
		chunk := entry.chunk
		entry.mu.Unlock()

		if now.Sub(chunk.LastAccessed) <= sw.cfg.DecayThreshold {
			continue
		}

		if chunk.ImportanceScore < sw.cfg.ImportanceFloor {
			if sw.evictIfStale(entry, now) {
				result.Evicted = append(result.Evicted, chunk.ID)
				log.Printf("sweep: evicted stale chunk %s (importance %.2f)", chunk.ID, chunk.ImportanceScore)
			}
			continue
		}

		if sw.store.Compress(chunk.ID) {
			result.Compressed = append(result.Compressed, chunk.ID)
			log.Printf("sweep: compressed stale chunk %s (importance %.2f)", chunk.ID, chunk.ImportanceScore)
		}
	}

	return result
}

// evictIfStale re-checks staleness under the chunk lock before deleting, so a
// retrieval that touched the chunk after the snapshot wins the race.
func (sw *Sweeper) evictIfStale(entry *chunkEntry, now time.Time) bool {
	entry.mu.Lock()
	id := entry.chunk.ID
	stale := now.Sub(entry.chunk.LastAccessed) > sw.cfg.DecayThreshold
	entry.mu.Unlock()

	if !stale {
		return false
	}
	return sw.store.Delete(id)
}
