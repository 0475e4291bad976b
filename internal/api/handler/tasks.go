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
	"socialpulse/internal/tasks"
	"socialpulse/pkg/models"
)

// NewListTasksHandler returns the handler for
// GET /api/v1/clients/{clientID}/tasks?status=.
func NewListTasksHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		status := r.URL.Query().Get("status")
		if status != "" && !models.ValidTaskStatus(status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of PENDIENTE, EN_CURSO, HECHO, REVISADO", nil)
			return
		}

		list, err := s.ListTasks(r.Context(), clientID, status)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, list)
	}
}

// NewPatchTaskHandler returns the handler for PATCH /api/v1/tasks/{taskID}.
// Only the status field is mutable.
func NewPatchTaskHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
			return
		}

		taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "taskID must be a valid UUID", nil)
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if !models.ValidTaskStatus(req.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of PENDIENTE, EN_CURSO, HECHO, REVISADO", nil)
			return
		}

		task, err := s.UpdateTaskStatus(r.Context(), taskID, claims.ClientID, req.Status)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, task)
	}
}

// NewGenerateTasksHandler returns the handler for
// POST /api/v1/clients/{clientID}/tasks/generate-from-q9. It reads the
// persisted Q9 insight and materializes task rows from it.
func NewGenerateTasksHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := scopedClientID(w, r)
		if !ok {
			return
		}

		insight, err := s.GetInsight(r.Context(), clientID, "Q9")
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusConflict, "NO_Q9_INSIGHT",
				"No Q9 insight available; run the analysis first", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		generated, err := tasks.GenerateFromQ9(clientID, insight.Payload)
		if err != nil {
			response.Error(w, http.StatusUnprocessableEntity, "INVALID_Q9_PAYLOAD",
				"Q9 insight payload could not be parsed", nil)
			return
		}
		if err := s.CreateTasks(r.Context(), generated); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create tasks", nil)
			return
		}

		response.Created(w, map[string]int{"tasks_created": len(generated)})
	}
}

// NewCreateTaskNoteHandler returns the handler for
// POST /api/v1/tasks/{taskID}/notes.
func NewCreateTaskNoteHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
			return
		}

		taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "taskID must be a valid UUID", nil)
			return
		}

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "body is required", nil)
			return
		}

		note := &models.TaskNote{
			ID:        uuid.New(),
			TaskID:    taskID,
			Body:      req.Body,
			Author:    claims.Username,
			CreatedAt: time.Now().UTC(),
		}
		err = s.CreateTaskNote(r.Context(), claims.ClientID, note)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create note", nil)
			return
		}
		response.Created(w, note)
	}
}

// NewListTaskNotesHandler returns the handler for
// GET /api/v1/tasks/{taskID}/notes.
func NewListTaskNotesHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
			return
		}

		taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "taskID must be a valid UUID", nil)
			return
		}

		notes, err := s.ListTaskNotes(r.Context(), claims.ClientID, taskID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, notes)
	}
}
