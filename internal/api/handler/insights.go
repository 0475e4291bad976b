package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"socialpulse/internal/analysis"
	"socialpulse/internal/api/response"
	"socialpulse/internal/cache"
	"socialpulse/internal/store"
	"socialpulse/pkg/models"
)

const insightCacheTTL = 10 * time.Minute

// moduleParam validates the {module} URL param against the known codes.
func moduleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	module := chi.URLParam(r, "module")
	if _, ok := analysis.Lookup(module); !ok {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown module code", nil)
		return "", false
	}
	return module, true
}

// NewPutInsightHandler returns the handler for
// PUT /api/v1/clients/{clientID}/insights/{module}. The body is an
// AnalysisResult envelope; the row is upserted and the cache refreshed.
func NewPutInsightHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}
		module, ok := moduleParam(w, r)
		if !ok {
			return
		}

		var envelope models.AnalysisResult
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if envelope.Metadata.Module != module {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"envelope module does not match URL module", nil)
			return
		}
		if envelope.Errors == nil {
			envelope.Errors = []string{}
		}

		insight := &models.Insight{
			ID:       uuid.New(),
			ClientID: clientID,
			Module:   module,
			Version:  envelope.Metadata.Version,
			Payload:  envelope.Results,
			Errors:   envelope.Errors,
		}
		saved, err := s.UpsertInsight(r.Context(), insight)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		refreshInsightCache(c, saved)
		response.JSON(w, saved)
	}
}

// NewGetInsightHandler returns the handler for
// GET /api/v1/clients/{clientID}/insights/{module}. Cache-first read.
func NewGetInsightHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}
		module, ok := moduleParam(w, r)
		if !ok {
			return
		}

		if raw, hit, err := c.Get(r.Context(), cache.InsightKey(clientID, module)); err == nil && hit {
			var cached models.Insight
			if json.Unmarshal(raw, &cached) == nil {
				response.JSON(w, &cached)
				return
			}
		}

		insight, err := s.GetInsight(r.Context(), clientID, module)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "No insight for this module", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		refreshInsightCache(c, insight)
		response.JSON(w, insight)
	}
}

// NewListInsightsHandler returns the handler for
// GET /api/v1/clients/{clientID}/insights — module codes present.
func NewListInsightsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		modules, err := s.ListInsightModules(r.Context(), clientID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, map[string]any{"modules": modules})
	}
}

// refreshInsightCache writes through best-effort; a cache failure is logged,
// never surfaced.
func refreshInsightCache(c cache.Cache, insight *models.Insight) {
	raw, err := json.Marshal(insight)
	if err != nil {
		return
	}
	if err := c.Set(context.Background(), cache.InsightKey(insight.ClientID, insight.Module), raw, insightCacheTTL); err != nil {
		slog.Warn("insight cache refresh failed", "client_id", insight.ClientID, "module", insight.Module, "error", err)
	}
}
