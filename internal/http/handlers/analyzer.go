package handlers

import (
	"errors"
	"net/http"

	"github.com/mfpereira/llmstxt-api/internal/analyzer"
	"github.com/mfpereira/llmstxt-api/internal/service"
)

// maxAnalysisContentBytes caps the posted content size for analyzer routes.
const maxAnalysisContentBytes = 1024 * 1024

type tokenAnalysisRequest struct {
	Content string `json:"content"`
	Model   string `json:"model_name,omitempty"`
}

type tokenAnalysisResponse struct {
	TotalTokens int            `json:"total_tokens"`
	Model       string         `json:"model_name"`
	Sections    map[string]int `json:"sections,omitempty"`
	*analyzer.Analysis
}

// AnalyzeTokens analyzes posted text: token totals always, per-section budget
// analysis for LLMs.txt-shaped content.
func (api *API) AnalyzeTokens(w http.ResponseWriter, r *http.Request) {
	result, ok := api.runTextAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tokenAnalysisResponse{
		TotalTokens: result.TotalTokens,
		Model:       result.Model,
		Sections:    result.Sections,
		Analysis:    result.Analysis,
	})
}

// DetectContentType classifies posted text and returns only the content-type
// and chunking portion of the analysis.
func (api *API) DetectContentType(w http.ResponseWriter, r *http.Request) {
	result, ok := api.runTextAnalysis(w, r)
	if !ok {
		return
	}

	response := map[string]any{
		"total_tokens": result.TotalTokens,
		"model_name":   result.Model,
	}
	if result.Analysis != nil && result.Analysis.ContentType != "" {
		response["content_type"] = result.Analysis.ContentType
		response["chunking_recommendation"] = result.Analysis.Chunking
	} else {
		response["content_type"] = nil
		response["chunking_recommendation"] = nil
	}
	writeJSON(w, http.StatusOK, response)
}

func (api *API) runTextAnalysis(w http.ResponseWriter, r *http.Request) (*service.TextAnalysis, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalysisContentBytes+4096)

	var request tokenAnalysisRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return nil, false
	}
	if request.Content == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "content is required")
		return nil, false
	}
	if len(request.Content) > maxAnalysisContentBytes {
		writeError(w, r, http.StatusBadRequest, "content_too_large", "content exceeds the 1MB limit")
		return nil, false
	}

	result, err := api.analysis.AnalyzeText(request.Content, request.Model)
	if err != nil {
		if errors.Is(err, analyzer.ErrEmptyContent) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "content is required")
			return nil, false
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to analyze content")
		return nil, false
	}
	return result, true
}
