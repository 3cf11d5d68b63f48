package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetAndGet(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	if err := s.SetFields(ctx, "job-1", map[string]string{"status": "created", "progress": "0"}); err != nil {
		t.Fatalf("SetFields failed: %v", err)
	}

	fields, err := s.GetAll(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if fields["status"] != "created" {
		t.Errorf("expected status created, got %q", fields["status"])
	}
	if fields["progress"] != "0" {
		t.Errorf("expected progress 0, got %q", fields["progress"])
	}
}

func TestMemoryStoreSetFieldsMerges(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	_ = s.SetFields(ctx, "job-1", map[string]string{"status": "created", "filename": "doc.pdf"})
	_ = s.SetFields(ctx, "job-1", map[string]string{"status": "processing", "progress": "0.1"})

	fields, err := s.GetAll(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if fields["status"] != "processing" {
		t.Errorf("expected merged status processing, got %q", fields["status"])
	}
	if fields["filename"] != "doc.pdf" {
		t.Errorf("expected filename preserved, got %q", fields["filename"])
	}
}

func TestMemoryStoreGetAllUnknownJob(t *testing.T) {
	s := NewMemoryJobStore()
	if _, err := s.GetAll(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	current := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	_ = s.SetFields(ctx, "job-1", map[string]string{"status": "created"})
	if err := s.Expire(ctx, "job-1", time.Hour); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}

	exists, err := s.Exists(ctx, "job-1")
	if err != nil || !exists {
		t.Fatalf("expected job to exist before TTL, exists=%v err=%v", exists, err)
	}

	current = current.Add(2 * time.Hour)

	exists, err = s.Exists(ctx, "job-1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected job to be evicted after TTL elapsed")
	}
	if _, err := s.GetAll(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreExpireResetsDeadline(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	current := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	_ = s.SetFields(ctx, "job-1", map[string]string{"status": "processing"})
	_ = s.Expire(ctx, "job-1", time.Hour)

	// Terminal transition extends the record lifetime.
	current = current.Add(30 * time.Minute)
	_ = s.Expire(ctx, "job-1", 24*time.Hour)

	current = current.Add(2 * time.Hour)
	exists, err := s.Exists(ctx, "job-1")
	if err != nil || !exists {
		t.Fatalf("expected job alive under extended TTL, exists=%v err=%v", exists, err)
	}
}

func TestMemoryStoreExpireUnknownJob(t *testing.T) {
	s := NewMemoryJobStore()
	if err := s.Expire(context.Background(), "missing", time.Hour); err != nil {
		t.Fatalf("Expire on unknown job should be a no-op, got %v", err)
	}
}
