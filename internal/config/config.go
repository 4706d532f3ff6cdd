package config

import (
	"fmt"
	"time"
)

// Config holds all keeper configuration.
// Every tuning knob that was a magic constant in the predecessor is a named
// field here so deployments can override it without code changes.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Memory    MemoryConfig    `toml:"memory"`
	Curation  CurationConfig  `toml:"curation"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MemoryConfig tunes the chunk store and decay sweeper.
type MemoryConfig struct {
	// Importance scoring weights. Must sum to 1.0 for scores to stay in [0,1].
	PriorityWeight float64 `toml:"priority_weight"`
	LengthWeight   float64 `toml:"length_weight"`
	TypeWeight     float64 `toml:"type_weight"`
	LengthNorm     int     `toml:"length_norm"` // content length that saturates the length component

	// Retrieval
	RelevanceThreshold float64 `toml:"relevance_threshold"` // below this a chunk is unrelated noise
	DefaultLimit       int     `toml:"default_limit"`
	Ranker             string  `toml:"ranker"` // "keyword" or "vector"

	// Compression
	CompressionThreshold int `toml:"compression_threshold"` // content shorter than this is never compressed
	CompressKeepHead     int `toml:"compress_keep_head"`
	CompressKeepTail     int `toml:"compress_keep_tail"`
	CompressTailCutoff   int `toml:"compress_tail_cutoff"` // content longer than this keeps head and tail
	SummarySentences     int `toml:"summary_sentences"`

	// Decay
	DecayThreshold  time.Duration `toml:"decay_threshold"`  // time since last access before a chunk decays
	ImportanceFloor float64       `toml:"importance_floor"` // decayed chunks below this are evicted, above compressed
	SweepInterval   time.Duration `toml:"sweep_interval"`
}

// CurationConfig tunes the per-conversation budget monitor.
type CurationConfig struct {
	MessageBudget     int     `toml:"message_budget"`
	TokenBudget       int     `toml:"token_budget"`
	ArchiveRatio      float64 `toml:"archive_ratio"`       // oldest share of messages archived per pass
	SummaryTokenRatio float64 `toml:"summary_token_ratio"` // archival summary size as a share of the token budget
	SummaryTokenFloor int     `toml:"summary_token_floor"`
	AutoCurate        bool    `toml:"auto_curate"` // curate on every append instead of only on demand
}

type EmbeddingConfig struct {
	Dimensions int `toml:"dimensions"`
	CacheSize  int `toml:"cache_size"`
}

// Default returns a Config with the engine's stock tuning.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Memory: MemoryConfig{
			PriorityWeight:       0.4,
			LengthWeight:         0.3,
			TypeWeight:           0.3,
			LengthNorm:           1000,
			RelevanceThreshold:   0.3,
			DefaultLimit:         10,
			Ranker:               "keyword",
			CompressionThreshold: 100,
			CompressKeepHead:     200,
			CompressKeepTail:     200,
			CompressTailCutoff:   400,
			SummarySentences:     3,
			DecayThreshold:       30 * 24 * time.Hour,
			ImportanceFloor:      0.5,
			SweepInterval:        24 * time.Hour,
		},
		Curation: CurationConfig{
			MessageBudget:     50,
			TokenBudget:       8000,
			ArchiveRatio:      0.6,
			SummaryTokenRatio: 0.1,
			SummaryTokenFloor: 256,
			AutoCurate:        true,
		},
		Embedding: EmbeddingConfig{
			Dimensions: 256,
			CacheSize:  4096,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
