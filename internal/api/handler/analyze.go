package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"socialpulse/internal/analysis"
	"socialpulse/internal/api/middleware"
	"socialpulse/internal/api/response"
	"socialpulse/internal/cache"
	"socialpulse/internal/store"
	"socialpulse/pkg/models"
)

const jobStatusTTL = 24 * time.Hour

// NewTriggerAnalyzeHandler returns the handler for
// POST /api/v1/analyze/trigger. It records a pending job and answers 202;
// the orchestrator process picks the run up out of band.
func NewTriggerAnalyzeHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
			return
		}

		var req struct {
			Module string `json:"module"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Module == "" {
			req.Module = "all"
		}
		if req.Module != "all" {
			if _, ok := analysis.Lookup(req.Module); !ok {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown module code", nil)
				return
			}
		}

		now := time.Now().UTC()
		job := &models.Job{
			ID:        uuid.New(),
			ClientID:  claims.ClientID,
			Module:    req.Module,
			Status:    models.JobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.CreateJob(r.Context(), job); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create job", nil)
			return
		}

		// Best effort; the jobs table stays authoritative.
		c.SetJobStatus(r.Context(), job.ID, job.Status, jobStatusTTL)

		response.Accepted(w, job)
	}
}

// NewGetJobHandler returns the handler for GET /api/v1/analyze/{jobID}.
// Status comes from the cache when fresh, else the jobs table.
func NewGetJobHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		job, err := s.GetJob(r.Context(), jobID, claims.ClientID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		if status, hit, err := c.GetJobStatus(r.Context(), jobID); err == nil && hit {
			job.Status = status
		}

		response.JSON(w, job)
	}
}
