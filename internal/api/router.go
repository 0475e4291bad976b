package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "socialpulse/internal/api/middleware"
	"socialpulse/internal/api/response"
	"socialpulse/internal/auth"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	TokenHandler  http.HandlerFunc

	GetClient   http.HandlerFunc
	PatchClient http.HandlerFunc

	GetDataset  http.HandlerFunc
	PostDataset http.HandlerFunc

	PutInsight   http.HandlerFunc
	GetInsight   http.HandlerFunc
	ListInsights http.HandlerFunc

	TriggerAnalyze http.HandlerFunc
	GetJob         http.HandlerFunc

	ListTasks      http.HandlerFunc
	PatchTask      http.HandlerFunc
	GenerateTasks  http.HandlerFunc
	CreateTaskNote http.HandlerFunc
	ListTaskNotes  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/token", orNotImplemented(deps.TokenHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Route("/api/v1/clients/{clientID}", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.GetClient))
			r.Patch("/", orNotImplemented(deps.PatchClient))

			r.Get("/dataset", orNotImplemented(deps.GetDataset))
			// Bulk ingestion mutates the analysis corpus; analysts only read it.
			r.With(deps.Auth.RequireRole(auth.RoleAdmin)).
				Post("/dataset", orNotImplemented(deps.PostDataset))

			r.Get("/insights", orNotImplemented(deps.ListInsights))
			r.Put("/insights/{module}", orNotImplemented(deps.PutInsight))
			r.Get("/insights/{module}", orNotImplemented(deps.GetInsight))

			r.Get("/tasks", orNotImplemented(deps.ListTasks))
			r.Post("/tasks/generate-from-q9", orNotImplemented(deps.GenerateTasks))
		})

		r.Post("/api/v1/analyze/trigger", orNotImplemented(deps.TriggerAnalyze))
		r.Get("/api/v1/analyze/{jobID}", orNotImplemented(deps.GetJob))

		r.Patch("/api/v1/tasks/{taskID}", orNotImplemented(deps.PatchTask))
		r.Post("/api/v1/tasks/{taskID}/notes", orNotImplemented(deps.CreateTaskNote))
		r.Get("/api/v1/tasks/{taskID}/notes", orNotImplemented(deps.ListTaskNotes))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
