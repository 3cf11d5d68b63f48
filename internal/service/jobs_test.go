package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mfpereira/llmstxt-api/internal/converter"
	"github.com/mfpereira/llmstxt-api/internal/domain"
	"github.com/mfpereira/llmstxt-api/internal/store"
)

type fakeConverter struct {
	err    error
	result *converter.Result
}

func (f *fakeConverter) Convert(_ context.Context, _ converter.Request) (*converter.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// recordingStore wraps the in-memory store to capture the TTLs applied per
// job, so tests can assert the state-dependent expiration policy.
type recordingStore struct {
	store.JobStore

	mu   sync.Mutex
	ttls map[string][]time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		JobStore: store.NewMemoryJobStore(),
		ttls:     make(map[string][]time.Duration),
	}
}

func (r *recordingStore) Expire(ctx context.Context, jobID string, ttl time.Duration) error {
	r.mu.Lock()
	r.ttls[jobID] = append(r.ttls[jobID], ttl)
	r.mu.Unlock()
	return r.JobStore.Expire(ctx, jobID, ttl)
}

func (r *recordingStore) ttlsFor(jobID string) []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.ttls[jobID]...)
}

// waitForTTLs polls until at least n Expire calls were observed for the job.
// The terminal status write lands before the TTL extension, so observing a
// terminal status does not guarantee the final Expire happened yet.
func (r *recordingStore) waitForTTLs(t *testing.T, jobID string, n int) []time.Duration {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ttls := r.ttlsFor(jobID)
		if len(ttls) >= n {
			return ttls
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d Expire calls for %s, got %v", n, jobID, r.ttlsFor(jobID))
	return nil
}

func newTestService(t *testing.T, st store.JobStore, conv converter.Converter) *JobsService {
	t.Helper()
	return NewJobsService(JobsDependencies{
		Store:     st,
		Converter: conv,
		UploadDir: t.TempDir(),
		TTL: TTLConfig{
			Processing: time.Hour,
			Completed:  24 * time.Hour,
			Failed:     12 * time.Hour,
		},
	})
}

// waitForTerminal polls until the job reaches a terminal status or the
// deadline passes.
func waitForTerminal(t *testing.T, svc *JobsService, jobID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetStatus(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return nil
}

func TestJobLifecycleCompleted(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{result: &converter.Result{
		Formats: map[string]string{domain.FormatLLMS: "# Title: doc\n\n# Content\nsome body text here\n"},
	}}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	job := waitForTerminal(t, svc, jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error=%q)", job.Status, job.Error)
	}
	if job.Progress != 1.0 {
		t.Errorf("expected progress 1.0, got %v", job.Progress)
	}
	if job.Result == nil {
		t.Fatal("completed job must carry a result")
	}
	if job.Result.Formats[domain.FormatLLMS] == "" {
		t.Error("result must carry the llms format")
	}
	if job.Result.TokenCount <= 0 {
		t.Errorf("expected a positive token count, got %d", job.Result.TokenCount)
	}
	if job.Result.Analysis == nil {
		t.Error("llms-full profile should produce an analysis")
	}
	if job.Error != "" {
		t.Errorf("completed job must not carry an error, got %q", job.Error)
	}
	if job.Filename != "doc.txt" {
		t.Errorf("expected the original upload name, got %q", job.Filename)
	}

	ttls := st.waitForTTLs(t, jobID, 2)
	if ttls[0] != time.Hour {
		t.Errorf("creation TTL = %v, want 1h", ttls[0])
	}
	if ttls[len(ttls)-1] != 24*time.Hour {
		t.Errorf("completion TTL = %v, want 24h", ttls[len(ttls)-1])
	}
}

func TestJobLifecycleFailed(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{err: errors.New("corrupt document")}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job := waitForTerminal(t, svc, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error == "" {
		t.Error("failed job must carry an error message")
	}
	if job.Result != nil {
		t.Error("failed job must not carry a result")
	}

	ttls := st.waitForTTLs(t, jobID, 2)
	if ttls[len(ttls)-1] != 12*time.Hour {
		t.Errorf("failure TTL = %v, want 12h", ttls[len(ttls)-1])
	}
}

func TestJobTempFileRemoved(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{result: &converter.Result{
		Formats: map[string]string{domain.FormatLLMS: "text"},
	}}

	uploadDir := t.TempDir()
	svc := NewJobsService(JobsDependencies{
		Store:     st,
		Converter: conv,
		UploadDir: uploadDir,
	})

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	waitForTerminal(t, svc, jobID)

	// The temp file is removed on every exit path; allow the deferred cleanup
	// a moment to run after the terminal write.
	deadline := time.Now().Add(2 * time.Second)
	path := filepath.Join(uploadDir, jobID+"_doc.txt")
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("temp file %s was not removed", path)
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc := newTestService(t, store.NewMemoryJobStore(), &fakeConverter{})
	if _, err := svc.GetStatus(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDetailsRawFields(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{result: &converter.Result{
		Formats: map[string]string{domain.FormatLLMS: "text"},
	}}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{Profile: domain.ProfileMin})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	waitForTerminal(t, svc, jobID)

	fields, err := svc.GetDetails(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if fields[domain.FieldStatus] != string(domain.JobStatusCompleted) {
		t.Errorf("unexpected raw status %q", fields[domain.FieldStatus])
	}
	if fields[domain.FieldParams] == "" {
		t.Error("raw record must include the params field")
	}
}

func TestMinProfileSkipsAnalysis(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{result: &converter.Result{
		Formats: map[string]string{domain.FormatLLMS: "# Content\nshort body\n"},
	}}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{Profile: domain.ProfileMin})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job := waitForTerminal(t, svc, jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Result.Analysis != nil {
		t.Error("non-full profiles must not run the document analysis")
	}
}

func TestArchiveRecordsTerminalJobs(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{result: &converter.Result{
		Formats: map[string]string{domain.FormatLLMS: "text"},
	}}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "doc.txt", domain.ConversionParams{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	waitForTerminal(t, svc, jobID)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := svc.ListArchivedJobs(context.Background(), 10)
		if err != nil {
			t.Fatalf("ListArchivedJobs failed: %v", err)
		}
		if len(entries) == 1 && entries[0].JobID == jobID {
			if entries[0].Status != string(domain.JobStatusCompleted) {
				t.Errorf("archived status = %q", entries[0].Status)
			}
			if entries[0].Filename != "doc.txt" {
				t.Errorf("archived filename = %q, want the original upload name", entries[0].Filename)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("terminal job never reached the archive")
}

func TestArchiveKeepsFilenameOnFailure(t *testing.T) {
	st := newRecordingStore()
	conv := &fakeConverter{err: errors.New("corrupt document")}
	svc := newTestService(t, st, conv)

	jobID, err := svc.CreateJob(context.Background(), []byte("content"), "report.txt", domain.ConversionParams{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	waitForTerminal(t, svc, jobID)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := svc.ListArchivedJobs(context.Background(), 10)
		if err != nil {
			t.Fatalf("ListArchivedJobs failed: %v", err)
		}
		if len(entries) == 1 && entries[0].JobID == jobID {
			if entries[0].Filename != "report.txt" {
				t.Errorf("archived filename = %q, want report.txt", entries[0].Filename)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("failed job never reached the archive")
}
