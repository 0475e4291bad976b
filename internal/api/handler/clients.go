package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"socialpulse/internal/api/middleware"
	"socialpulse/internal/api/response"
	"socialpulse/internal/store"
)

// scopedClientID parses the {clientID} URL param and checks it against the
// token's tenant. Writes the error response itself on failure.
func scopedClientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	clientID, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "clientID must be a valid UUID", nil)
		return uuid.Nil, false
	}

	claims, ok := middleware.GetClaims(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
		return uuid.Nil, false
	}
	if claims.ClientID != clientID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Token is not scoped to this client", nil)
		return uuid.Nil, false
	}
	return clientID, true
}

// NewGetClientHandler returns the handler for GET /api/v1/clients/{clientID}.
func NewGetClientHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		client, err := s.GetClient(r.Context(), clientID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, client)
	}
}

// NewPatchClientHandler returns the handler for PATCH /api/v1/clients/{clientID}.
// Absent fields are left unchanged.
func NewPatchClientHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		var req struct {
			Name           *string `json:"name"`
			BrandContext   *string `json:"brand_context"`
			Industry       *string `json:"industry"`
			SpreadsheetID  *string `json:"spreadsheet_id"`
			LastAnalyzedAt *string `json:"last_analyzed_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		patch := store.ClientPatch{
			Name:          req.Name,
			BrandContext:  req.BrandContext,
			Industry:      req.Industry,
			SpreadsheetID: req.SpreadsheetID,
		}
		if req.LastAnalyzedAt != nil {
			t, err := time.Parse(time.RFC3339, *req.LastAnalyzedAt)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"last_analyzed_at must be a valid RFC3339 timestamp", nil)
				return
			}
			patch.LastAnalyzedAt = &t
		}

		client, err := s.UpdateClient(r.Context(), clientID, patch)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, client)
	}
}
