package memory

import "errors"

var (
	// ErrNotFound is returned when an operation names a chunk id that does
	// not exist in the store.
	ErrNotFound = errors.New("chunk not found")

	// ErrInvalidType is returned when a caller supplies a context type
	// outside the closed set.
	ErrInvalidType = errors.New("invalid context type")

	// ErrInvalidPriority is returned when a caller supplies a priority
	// outside the closed set.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrNoChunks is returned by the aggregator when asked to summarize an
	// empty chunk list.
	ErrNoChunks = errors.New("no chunks to summarize")
)
