package handlers

import (
	"net/http"
	"strconv"
	"time"
)

type archivedJobView struct {
	JobID             string    `json:"job_id"`
	Filename          string    `json:"filename,omitempty"`
	Status            string    `json:"status"`
	Profile           string    `json:"profile,omitempty"`
	Model             string    `json:"model,omitempty"`
	TokenCount        int       `json:"token_count,omitempty"`
	ProcessingSeconds float64   `json:"processing_time"`
	Error             string    `json:"error,omitempty"`
	FinishedAt        time.Time `json:"finished_at"`
}

// ArchivedJobs lists recent terminal jobs from the archive.
func (api *API) ArchivedJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	entries, err := api.jobs.ListArchivedJobs(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list archived jobs")
		return
	}

	views := make([]archivedJobView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, archivedJobView{
			JobID:             entry.JobID,
			Filename:          entry.Filename,
			Status:            entry.Status,
			Profile:           entry.Profile,
			Model:             entry.Model,
			TokenCount:        entry.TokenCount,
			ProcessingSeconds: entry.ProcessingSeconds,
			Error:             entry.Error,
			FinishedAt:        entry.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  views,
		"count": len(views),
	})
}
