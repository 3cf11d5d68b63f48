package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mfpereira/llmstxt-api/internal/http/middleware"
	"github.com/mfpereira/llmstxt-api/internal/service"
)

var errInvalidPayload = errors.New("invalid payload")

// API bundles the handler dependencies for the converter surface.
type API struct {
	jobs             *service.JobsService
	analysis         *service.AnalysisService
	supportedFormats []string
	maxFileSizeBytes int64
}

type APIConfig struct {
	Jobs             *service.JobsService
	Analysis         *service.AnalysisService
	SupportedFormats []string
	MaxFileSizeBytes int64
}

func NewAPI(cfg APIConfig) *API {
	if len(cfg.SupportedFormats) == 0 {
		cfg.SupportedFormats = []string{"pdf", "txt", "md", "html", "htm"}
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 50 * 1024 * 1024
	}
	return &API{
		jobs:             cfg.Jobs,
		analysis:         cfg.Analysis,
		supportedFormats: cfg.SupportedFormats,
		maxFileSizeBytes: cfg.MaxFileSizeBytes,
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}
