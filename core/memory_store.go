package core

import (
	"context"
	"time"
)

// MemoryType tags a memory item with the kind of fact it records.
type MemoryType string

// Memory item types produced by the scheduler.
const (
	MemoryTypePersonalInfo MemoryType = "personal_info"
	MemoryTypePreference   MemoryType = "preference"
	MemoryTypeObservation  MemoryType = "observation"
	MemoryTypeInsight      MemoryType = "insight"
)

// MemoryItem is the shape this core writes to the vector store. The
// persistence format behind it is the store's concern, not ours.
type MemoryItem struct {
	Content    string
	Type       MemoryType
	Timestamp  time.Time
	Step       int
	UsageCount int
}

// ScoredItem is a retrieved memory item with its relevance score.
type ScoredItem struct {
	Item  MemoryItem
	Score float64
}

// SearchFilter narrows a vector search by metadata. A zero-value field means
// no constraint on that dimension.
type SearchFilter struct {
	Type MemoryType

	// StepGreaterThan, when non-nil, keeps only items created after the
	// given step.
	StepGreaterThan *int
}

// VectorStore is the external similarity-memory contract. Results are
// ordered by descending relevance; tie ordering is unspecified.
type VectorStore interface {
	Search(ctx context.Context, uid, query string, k int, filter *SearchFilter) ([]ScoredItem, error)
	Insert(ctx context.Context, uid string, items []MemoryItem) error
}
