package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mfpereira/llmstxt-api/internal/analyzer"
)

type JobStatus string

const (
	JobStatusCreated    JobStatus = "created"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ConversionParams carries the client-supplied conversion options. The core
// passes most of them through to the converter untouched.
type ConversionParams struct {
	OCREngine     string   `json:"ocr_engine,omitempty"`
	OCRLanguage   string   `json:"ocr_language,omitempty"`
	ForceOCR      bool     `json:"force_ocr,omitempty"`
	Profile       string   `json:"profile,omitempty"`
	OutputFormats []string `json:"output_formats,omitempty"`
	ChunkSize     int      `json:"chunk_size,omitempty"`
	ChunkOverlap  int      `json:"chunk_overlap,omitempty"`
	Model         string   `json:"model_name,omitempty"`
}

const (
	ProfileFull = "llms-full"
	ProfileMin  = "llms-min"

	FormatLLMS = "llms"
)

// Normalize fills defaults for fields the client omitted.
func (p *ConversionParams) Normalize() {
	if p.OCREngine == "" {
		p.OCREngine = "auto"
	}
	if p.Profile == "" {
		p.Profile = ProfileFull
	}
	if len(p.OutputFormats) == 0 {
		p.OutputFormats = []string{FormatLLMS}
	}
	if p.Model == "" {
		p.Model = "gpt-3.5-turbo"
	}
}

// JobResult is present only on completed jobs.
type JobResult struct {
	Formats           map[string]string  `json:"formats"`
	TokenCount        int                `json:"token_count,omitempty"`
	Analysis          *analyzer.Analysis `json:"analysis,omitempty"`
	ProcessingSeconds float64            `json:"processing_time"`
}

// Job is one asynchronous conversion request tracked through the state
// machine. Result is populated only when Status is completed, Error only when
// Status is failed; the store representation is an untyped field map, so the
// discrimination is enforced at encode/decode time.
type Job struct {
	ID            string
	Status        JobStatus
	Progress      float64
	StatusMessage string
	CreatedAt     time.Time
	Filename      string
	Params        ConversionParams
	Result        *JobResult
	Error         string
}

// Store field names shared by every JobStore implementation.
const (
	FieldStatus        = "status"
	FieldProgress      = "progress"
	FieldStatusMessage = "status_message"
	FieldCreatedAt     = "created_at"
	FieldFilename      = "filename"
	FieldParams        = "params"
	FieldResult        = "result"
	FieldError         = "error"
)

// Fields serializes the job into the flat string map the store holds.
func (j *Job) Fields() (map[string]string, error) {
	params, err := json.Marshal(j.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	fields := map[string]string{
		FieldStatus:        string(j.Status),
		FieldProgress:      strconv.FormatFloat(j.Progress, 'f', -1, 64),
		FieldStatusMessage: j.StatusMessage,
		FieldCreatedAt:     j.CreatedAt.UTC().Format(time.RFC3339Nano),
		FieldFilename:      j.Filename,
		FieldParams:        string(params),
	}
	if j.Status == JobStatusCompleted && j.Result != nil {
		result, err := json.Marshal(j.Result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		fields[FieldResult] = string(result)
	}
	if j.Status == JobStatusFailed {
		fields[FieldError] = j.Error
	}
	return fields, nil
}

// JobFromFields rebuilds a typed job from the store's field map. Status-gated
// fields are only decoded for the matching status.
func JobFromFields(id string, fields map[string]string) (*Job, error) {
	job := &Job{
		ID:            id,
		Status:        JobStatus(fields[FieldStatus]),
		StatusMessage: fields[FieldStatusMessage],
		Filename:      fields[FieldFilename],
	}

	switch job.Status {
	case JobStatusCreated, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
	default:
		return nil, fmt.Errorf("unknown job status %q", fields[FieldStatus])
	}

	if raw := fields[FieldProgress]; raw != "" {
		progress, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid progress %q: %w", raw, err)
		}
		job.Progress = progress
	}
	if raw := fields[FieldCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", raw, err)
		}
		job.CreatedAt = createdAt
	}
	if raw := fields[FieldParams]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}

	if job.Status == JobStatusCompleted {
		if raw := fields[FieldResult]; raw != "" {
			var result JobResult
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				return nil, fmt.Errorf("decode result: %w", err)
			}
			job.Result = &result
		}
	}
	if job.Status == JobStatusFailed {
		job.Error = fields[FieldError]
	}
	return job, nil
}
