// Package handler contains the http.HandlerFunc constructors for every
// /api/v1 endpoint. Handlers depend on the store and cache interfaces so
// tests can swap in fakes.
package handler

import (
	"net/http"

	"socialpulse/internal/api/response"
	"socialpulse/internal/cache"
	"socialpulse/internal/store"
)

// NewHealthHandler returns the handler for GET /api/v1/health. It reports
// per-dependency status and answers 503 when either store is down.
func NewHealthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type depStatus struct {
			Postgres string `json:"postgres"`
			Redis    string `json:"redis"`
		}

		status := depStatus{Postgres: "ok", Redis: "ok"}
		healthy := true

		if err := s.Ping(r.Context()); err != nil {
			status.Postgres = "unavailable"
			healthy = false
		}
		if err := c.Ping(r.Context()); err != nil {
			status.Redis = "unavailable"
			healthy = false
		}

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable,
				"SERVICE_UNAVAILABLE", "One or more dependencies are down", status)
			return
		}
		response.JSON(w, status)
	}
}
