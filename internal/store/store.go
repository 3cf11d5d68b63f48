// Package store provides the TTL-aware key/value store that holds job
// records. A record is a flat map of string fields addressed by job id; the
// store owns expiration, callers own field semantics.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a job record is absent, either because it
// never existed or because its TTL elapsed. The two are indistinguishable.
var ErrNotFound = errors.New("job record not found")

// JobStore is the storage contract the orchestrator requires: atomic
// set-multiple-fields, get-all-fields, existence check, and per-record
// expiration. No cross-record transactions are assumed.
type JobStore interface {
	SetFields(ctx context.Context, jobID string, fields map[string]string) error
	GetAll(ctx context.Context, jobID string) (map[string]string, error)
	Exists(ctx context.Context, jobID string) (bool, error)
	Expire(ctx context.Context, jobID string, ttl time.Duration) error
	Close() error
}
