package store

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	fields    map[string]string
	expiresAt time.Time
}

func (r *memoryRecord) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// MemoryJobStore is the in-process fallback used when Redis is not
// configured. Expiry is enforced lazily on access.
type MemoryJobStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	now     func() time.Time
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		records: make(map[string]*memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryJobStore) Close() error { return nil }

func (s *MemoryJobStore) SetFields(_ context.Context, jobID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.liveRecordLocked(jobID)
	if record == nil {
		record = &memoryRecord{fields: make(map[string]string)}
		s.records[jobID] = record
	}
	for key, value := range fields {
		record.fields[key] = value
	}
	return nil
}

func (s *MemoryJobStore) GetAll(_ context.Context, jobID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.liveRecordLocked(jobID)
	if record == nil {
		return nil, ErrNotFound
	}
	copied := make(map[string]string, len(record.fields))
	for key, value := range record.fields {
		copied[key] = value
	}
	return copied, nil
}

func (s *MemoryJobStore) Exists(_ context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveRecordLocked(jobID) != nil, nil
}

func (s *MemoryJobStore) Expire(_ context.Context, jobID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.liveRecordLocked(jobID)
	if record == nil {
		return nil
	}
	record.expiresAt = s.now().Add(ttl)
	return nil
}

// liveRecordLocked returns the record for jobID, evicting it first if its
// TTL elapsed. Caller must hold the write lock.
func (s *MemoryJobStore) liveRecordLocked(jobID string) *memoryRecord {
	record, ok := s.records[jobID]
	if !ok {
		return nil
	}
	if record.expired(s.now()) {
		delete(s.records, jobID)
		return nil
	}
	return record
}
