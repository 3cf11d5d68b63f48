// Package repository persists terminal job outcomes for post-mortem and
// analytics. The TTL store remains the source of truth for live jobs; the
// archive is append-only.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ArchiveEntry is one terminal job outcome.
type ArchiveEntry struct {
	JobID             string
	Filename          string
	Status            string
	Profile           string
	Model             string
	TokenCount        int
	ProcessingSeconds float64
	Error             string
	FinishedAt        time.Time
}

// JobsArchive records terminal jobs and lists recent ones.
type JobsArchive interface {
	Record(ctx context.Context, entry ArchiveEntry) error
	ListRecent(ctx context.Context, limit int) ([]ArchiveEntry, error)
}

// MemoryArchive keeps entries in memory for local development.
type MemoryArchive struct {
	mu      sync.RWMutex
	entries []ArchiveEntry
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{entries: make([]ArchiveEntry, 0)}
}

func (a *MemoryArchive) Record(_ context.Context, entry ArchiveEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *MemoryArchive) ListRecent(_ context.Context, limit int) ([]ArchiveEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	copied := make([]ArchiveEntry, len(a.entries))
	copy(copied, a.entries)
	sort.Slice(copied, func(i, j int) bool {
		return copied[i].FinishedAt.After(copied[j].FinishedAt)
	})
	if len(copied) > limit {
		copied = copied[:limit]
	}
	return copied, nil
}
