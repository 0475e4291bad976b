package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"socialpulse/internal/api/response"
	"socialpulse/internal/store"
	"socialpulse/pkg/models"
)

// NewGetDatasetHandler returns the handler for
// GET /api/v1/clients/{clientID}/dataset?since=. Without since the full
// snapshot is returned; with it, only comments newer than the watermark.
func NewGetDatasetHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		var since *time.Time
		if raw := r.URL.Query().Get("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"since must be a valid RFC3339 timestamp", nil)
				return
			}
			since = &t
		}

		ds, err := s.GetDataset(r.Context(), clientID, since)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, ds)
	}
}

// NewPostDatasetHandler returns the handler for
// POST /api/v1/clients/{clientID}/dataset — bulk upsert of ingested posts
// and comments. Repeat pushes of the same rows are no-ops.
func NewPostDatasetHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		var req struct {
			Posts    []models.Post    `json:"posts"`
			Comments []models.Comment `json:"comments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Posts) == 0 && len(req.Comments) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "posts or comments are required", nil)
			return
		}

		if err := s.UpsertDataset(r.Context(), clientID, req.Posts, req.Comments); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.Created(w, map[string]int{
			"posts":    len(req.Posts),
			"comments": len(req.Comments),
		})
	}
}
