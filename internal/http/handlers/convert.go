package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mfpereira/llmstxt-api/internal/domain"
	"github.com/mfpereira/llmstxt-api/internal/store"
)

// Convert accepts a multipart upload plus a JSON "params" form field and
// enqueues an asynchronous conversion job.
func (api *API) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, api.maxFileSizeBytes+1024*1024)
	if err := r.ParseMultipartForm(api.maxFileSizeBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "filename is required")
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !contains(api.supportedFormats, ext) {
		writeError(w, r, http.StatusBadRequest, "unsupported_format",
			"unsupported file format, supported: "+strings.Join(api.supportedFormats, ", "))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "failed to read file")
		return
	}
	if int64(len(content)) > api.maxFileSizeBytes {
		writeError(w, r, http.StatusBadRequest, "file_too_large",
			"file exceeds the maximum size of "+strconv.FormatInt(api.maxFileSizeBytes/(1024*1024), 10)+"MB")
		return
	}

	rawParams := r.FormValue("params")
	if rawParams == "" {
		rawParams = "{}"
	}
	var params domain.ConversionParams
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid params JSON")
		return
	}

	jobID, err := api.jobs.CreateJob(r.Context(), content, filename, params)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to create conversion job")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": jobID,
		"status": "processing",
	})
}

// ConversionStatus reports the job state machine view: status, progress, and
// the result or error when terminal.
func (api *API) ConversionStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	job, err := api.jobs.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	response := map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"progress": job.Progress,
	}
	if job.Result != nil {
		response["result"] = job.Result
	}
	if job.Error != "" {
		response["error"] = job.Error
	}
	writeJSON(w, http.StatusOK, response)
}

// ConversionDetails exposes the full raw record for diagnostics.
func (api *API) ConversionDetails(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	fields, err := api.jobs.GetDetails(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	details := make(map[string]any, len(fields)+1)
	details["job_id"] = jobID
	for key, value := range fields {
		switch key {
		case domain.FieldProgress:
			if progress, err := strconv.ParseFloat(value, 64); err == nil {
				details[key] = progress
				continue
			}
			details[key] = value
		case domain.FieldResult, domain.FieldParams:
			var decoded any
			if err := json.Unmarshal([]byte(value), &decoded); err == nil {
				details[key] = decoded
				continue
			}
			details[key] = value
		default:
			details[key] = value
		}
	}
	writeJSON(w, http.StatusOK, details)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
