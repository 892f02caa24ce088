package routes

import (
	"net/http"

	"github.com/strideloop/fitadvisor-backend/internal/api/handlers"
	"github.com/strideloop/fitadvisor-backend/internal/api/middleware"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	assessmentHandler *handlers.AssessmentHandler
	metrics           *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	assessmentHandler *handlers.AssessmentHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		assessmentHandler: assessmentHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Assessment endpoints
	r.mux.HandleFunc("POST /api/assessment", r.assessmentHandler.GenerateAssessment)
	r.mux.HandleFunc("POST /api/assessment/feedback", r.assessmentHandler.ReviseAssessment)
	r.mux.HandleFunc("GET /api/assessment/latest", r.assessmentHandler.GetLatestAssessment)
	r.mux.HandleFunc("GET /api/assessment/{id}", r.assessmentHandler.GetAssessment)
	r.mux.HandleFunc("POST /api/assessment/{id}/approve", r.assessmentHandler.ApproveAssessment)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so all responses get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
