package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mfpereira/llmstxt-api/internal/analyzer"
	"github.com/mfpereira/llmstxt-api/internal/converter"
	"github.com/mfpereira/llmstxt-api/internal/domain"
	"github.com/mfpereira/llmstxt-api/internal/repository"
	"github.com/mfpereira/llmstxt-api/internal/store"
	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

// TTLConfig carries the state-dependent expiration policy: a short TTL while
// a job may still be running, longer TTLs after a terminal transition so
// clients can retrieve results or post-mortem failures.
type TTLConfig struct {
	Processing time.Duration
	Completed  time.Duration
	Failed     time.Duration
}

// JobsService orchestrates conversion jobs: it creates records in the TTL
// store, runs the conversion pipeline in a background goroutine, and exposes
// status lookups. It is the only writer of job state.
type JobsService struct {
	store     store.JobStore
	converter converter.Converter
	archive   repository.JobsArchive
	counter   *tokencount.Counter
	logger    *log.Logger
	uploadDir string
	ttl       TTLConfig
}

type JobsDependencies struct {
	Store     store.JobStore
	Converter converter.Converter
	Archive   repository.JobsArchive
	Counter   *tokencount.Counter
	Logger    *log.Logger
	UploadDir string
	TTL       TTLConfig
}

func NewJobsService(deps JobsDependencies) *JobsService {
	if deps.Archive == nil {
		deps.Archive = repository.NewMemoryArchive()
	}
	if deps.Counter == nil {
		deps.Counter = tokencount.New(deps.Logger)
	}
	if deps.UploadDir == "" {
		deps.UploadDir = filepath.Join(os.TempDir(), "llmstxt-uploads")
	}
	if deps.TTL.Processing <= 0 {
		deps.TTL.Processing = time.Hour
	}
	if deps.TTL.Completed <= 0 {
		deps.TTL.Completed = 24 * time.Hour
	}
	if deps.TTL.Failed <= 0 {
		deps.TTL.Failed = 24 * time.Hour
	}
	return &JobsService{
		store:     deps.Store,
		converter: deps.Converter,
		archive:   deps.Archive,
		counter:   deps.Counter,
		logger:    deps.Logger,
		uploadDir: deps.UploadDir,
		ttl:       deps.TTL,
	}
}

// CreateJob persists the initial record, saves the upload to a temp file, and
// schedules background processing. It never blocks on conversion.
func (s *JobsService) CreateJob(
	ctx context.Context,
	fileContent []byte,
	filename string,
	params domain.ConversionParams,
) (string, error) {
	params.Normalize()

	job := &domain.Job{
		ID:            uuid.NewString(),
		Status:        domain.JobStatusCreated,
		Progress:      0,
		StatusMessage: "job created",
		CreatedAt:     time.Now().UTC(),
		Filename:      filename,
		Params:        params,
	}
	fields, err := job.Fields()
	if err != nil {
		return "", fmt.Errorf("encode job record: %w", err)
	}
	if err := s.store.SetFields(ctx, job.ID, fields); err != nil {
		return "", fmt.Errorf("persist job record: %w", err)
	}
	if err := s.store.Expire(ctx, job.ID, s.ttl.Processing); err != nil {
		return "", fmt.Errorf("set job ttl: %w", err)
	}

	filePath, err := s.saveUpload(fileContent, job.ID, filename)
	if err != nil {
		// The record exists already; surface the failure through the job
		// state rather than leaving a permanently "created" record.
		s.markFailed(ctx, job.ID, filename, fmt.Errorf("save upload: %w", err))
		return "", fmt.Errorf("save upload: %w", err)
	}

	go s.process(job.ID, filePath, filename, params)
	return job.ID, nil
}

// GetStatus returns the typed job record, or store.ErrNotFound when the id is
// unknown or its TTL elapsed (the two are indistinguishable on purpose).
func (s *JobsService) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	exists, err := s.store.Exists(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("check job existence: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	fields, err := s.store.GetAll(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return domain.JobFromFields(jobID, fields)
}

// GetDetails returns the raw record fields for diagnostic endpoints.
func (s *JobsService) GetDetails(ctx context.Context, jobID string) (map[string]string, error) {
	exists, err := s.store.Exists(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("check job existence: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.store.GetAll(ctx, jobID)
}

// ListArchivedJobs lists recent terminal jobs from the archive.
func (s *JobsService) ListArchivedJobs(ctx context.Context, limit int) ([]repository.ArchiveEntry, error) {
	return s.archive.ListRecent(ctx, limit)
}

func (s *JobsService) saveUpload(content []byte, jobID, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.uploadDir, jobID+"_"+filepath.Base(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// process runs the conversion pipeline for one job. It executes exactly once
// per job in its own goroutine; all failures are converted into the failed
// terminal state and the temp file is removed on every exit path. The
// goroutine deliberately detaches from the request context: in-flight
// conversions are not cancellable, a stuck job simply expires via the
// processing TTL.
func (s *JobsService) process(jobID, filePath, filename string, params domain.ConversionParams) {
	ctx := context.Background()

	defer func() {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			if s.logger != nil {
				s.logger.Printf("failed to remove temp file job_id=%s path=%s err=%v", jobID, filePath, err)
			}
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.markFailed(ctx, jobID, filename, fmt.Errorf("panic during processing: %v", recovered))
		}
	}()

	start := time.Now()

	s.setFields(ctx, jobID, map[string]string{
		domain.FieldStatus:   string(domain.JobStatusProcessing),
		domain.FieldProgress: "0.1",
	})
	s.setFields(ctx, jobID, map[string]string{
		domain.FieldProgress:      "0.2",
		domain.FieldStatusMessage: "converting document",
	})

	result, err := s.converter.Convert(ctx, converter.Request{
		FilePath:      filePath,
		Profile:       params.Profile,
		OCREngine:     params.OCREngine,
		OCRLanguage:   params.OCRLanguage,
		ForceOCR:      params.ForceOCR,
		ExportFormats: params.OutputFormats,
		ChunkSize:     params.ChunkSize,
		ChunkOverlap:  params.ChunkOverlap,
	})
	if err != nil {
		s.markFailed(ctx, jobID, filename, err)
		return
	}

	s.setFields(ctx, jobID, map[string]string{
		domain.FieldProgress:      "0.7",
		domain.FieldStatusMessage: "analyzing document",
	})

	tokenCount := 0
	llmsText, hasLLMS := result.Formats[domain.FormatLLMS]
	if hasLLMS {
		tokenCount = s.counter.Count(llmsText, params.Model)
		s.setFields(ctx, jobID, map[string]string{domain.FieldProgress: "0.8"})
	}

	var analysis *analyzer.Analysis
	if tokenCount > 0 && params.Profile == domain.ProfileFull {
		docAnalyzer := analyzer.New(params.Model, s.logger)
		analysis, err = docAnalyzer.AnalyzeDocument(llmsText)
		if err != nil {
			s.markFailed(ctx, jobID, filename, fmt.Errorf("token analysis: %w", err))
			return
		}
		s.setFields(ctx, jobID, map[string]string{domain.FieldProgress: "0.9"})
	}

	s.setFields(ctx, jobID, map[string]string{
		domain.FieldProgress:      "0.95",
		domain.FieldStatusMessage: "persisting result",
	})

	elapsed := time.Since(start).Seconds()
	job := &domain.Job{
		ID:            jobID,
		Status:        domain.JobStatusCompleted,
		Progress:      1.0,
		StatusMessage: "processing completed",
		Filename:      filename,
		Params:        params,
		Result: &domain.JobResult{
			Formats:           result.Formats,
			TokenCount:        tokenCount,
			Analysis:          analysis,
			ProcessingSeconds: elapsed,
		},
	}
	fields, err := job.Fields()
	if err != nil {
		s.markFailed(ctx, jobID, filename, fmt.Errorf("encode result: %w", err))
		return
	}
	// Terminal fields land in a single write so readers never observe a
	// completed status without its result.
	s.setFields(ctx, jobID, map[string]string{
		domain.FieldStatus:        fields[domain.FieldStatus],
		domain.FieldProgress:      "1.0",
		domain.FieldStatusMessage: fields[domain.FieldStatusMessage],
		domain.FieldResult:        fields[domain.FieldResult],
	})
	if err := s.store.Expire(ctx, jobID, s.ttl.Completed); err != nil && s.logger != nil {
		s.logger.Printf("failed to extend ttl after completion job_id=%s err=%v", jobID, err)
	}

	s.recordArchive(ctx, repository.ArchiveEntry{
		JobID:             jobID,
		Filename:          filename,
		Status:            string(domain.JobStatusCompleted),
		Profile:           params.Profile,
		Model:             params.Model,
		TokenCount:        tokenCount,
		ProcessingSeconds: elapsed,
		FinishedAt:        time.Now().UTC(),
	})

	if s.logger != nil {
		s.logger.Printf("job completed job_id=%s tokens=%d elapsed=%.2fs", jobID, tokenCount, elapsed)
	}
}

func (s *JobsService) markFailed(ctx context.Context, jobID, filename string, cause error) {
	s.setFields(ctx, jobID, map[string]string{
		domain.FieldStatus:        string(domain.JobStatusFailed),
		domain.FieldStatusMessage: "processing failed",
		domain.FieldError:         cause.Error(),
	})
	if err := s.store.Expire(ctx, jobID, s.ttl.Failed); err != nil && s.logger != nil {
		s.logger.Printf("failed to set ttl after failure job_id=%s err=%v", jobID, err)
	}
	s.recordArchive(ctx, repository.ArchiveEntry{
		JobID:      jobID,
		Filename:   filename,
		Status:     string(domain.JobStatusFailed),
		Error:      cause.Error(),
		FinishedAt: time.Now().UTC(),
	})
	if s.logger != nil {
		s.logger.Printf("job failed job_id=%s err=%v", jobID, cause)
	}
}

func (s *JobsService) setFields(ctx context.Context, jobID string, fields map[string]string) {
	if err := s.store.SetFields(ctx, jobID, fields); err != nil && s.logger != nil {
		s.logger.Printf("failed to write job fields job_id=%s err=%v", jobID, err)
	}
}

func (s *JobsService) recordArchive(ctx context.Context, entry repository.ArchiveEntry) {
	if err := s.archive.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Printf("failed to archive job job_id=%s err=%v", entry.JobID, err)
	}
}
