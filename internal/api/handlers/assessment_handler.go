package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
)

// AssessmentService defines the pipeline operations used by the handler.
type AssessmentService interface {
	GenerateAssessment(ctx context.Context, userID string, surveyResponses map[string]interface{}) (*entities.Assessment, error)
	ReviseAssessment(ctx context.Context, userID, currentAssessment, feedback string, surveyResponses map[string]interface{}, revisionOfID string) (*entities.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*entities.Assessment, error)
	GetLatestAssessment(ctx context.Context, userID string) (*entities.Assessment, error)
	ApproveAssessment(ctx context.Context, id string) error
}

// AssessmentHandler handles assessment generation and revision requests.
type AssessmentHandler struct {
	service AssessmentService
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(service AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

type generateRequest struct {
	SurveyResponses map[string]interface{} `json:"surveyResponses"`
	UserID          string                 `json:"userId"`
}

type reviseRequest struct {
	CurrentAssessment      string                 `json:"currentAssessment"`
	Feedback               string                 `json:"feedback"`
	SurveyResponses        map[string]interface{} `json:"surveyResponses"`
	UserID                 string                 `json:"userId"`
	RevisionOfAssessmentID string                 `json:"revisionOfAssessmentId,omitempty"`
}

type assessmentResponse struct {
	Assessment   string `json:"assessment"`
	AssessmentID string `json:"assessmentId"`
}

// GenerateAssessment handles POST /api/assessment
func (h *AssessmentHandler) GenerateAssessment(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing surveyResponses or userId")
		return
	}

	if len(payload.SurveyResponses) == 0 || payload.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing surveyResponses or userId")
		return
	}

	assessment, err := h.service.GenerateAssessment(r.Context(), payload.UserID, payload.SurveyResponses)
	if err != nil {
		h.respondWithServiceError(r.Context(), w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessmentResponse{
		Assessment:   assessment.AssessmentText,
		AssessmentID: assessment.ID,
	})
}

// ReviseAssessment handles POST /api/assessment/feedback
func (h *AssessmentHandler) ReviseAssessment(w http.ResponseWriter, r *http.Request) {
	var payload reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing surveyResponses or userId")
		return
	}

	if len(payload.SurveyResponses) == 0 || payload.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing surveyResponses or userId")
		return
	}

	assessment, err := h.service.ReviseAssessment(
		r.Context(),
		payload.UserID,
		payload.CurrentAssessment,
		payload.Feedback,
		payload.SurveyResponses,
		payload.RevisionOfAssessmentID,
	)
	if err != nil {
		h.respondWithServiceError(r.Context(), w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessmentResponse{
		Assessment:   assessment.AssessmentText,
		AssessmentID: assessment.ID,
	})
}

// GetLatestAssessment handles GET /api/assessment/latest
func (h *AssessmentHandler) GetLatestAssessment(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing userId")
		return
	}

	assessment, err := h.service.GetLatestAssessment(r.Context(), userID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondWithError(w, http.StatusNotFound, "No assessment found for user")
			return
		}
		h.respondWithServiceError(r.Context(), w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessment)
}

// GetAssessment handles GET /api/assessment/{id}
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing assessment id")
		return
	}

	assessment, err := h.service.GetAssessment(r.Context(), id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondWithError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		h.respondWithServiceError(r.Context(), w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessment)
}

// ApproveAssessment handles POST /api/assessment/{id}/approve
func (h *AssessmentHandler) ApproveAssessment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing assessment id")
		return
	}

	if err := h.service.ApproveAssessment(r.Context(), id); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondWithError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		h.respondWithServiceError(r.Context(), w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "approved", "id": id})
}

// respondWithServiceError maps pipeline errors onto the stable wire shape.
// Internal detail never leaks past the log line.
func (h *AssessmentHandler) respondWithServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := observability.LoggerFromContext(ctx)

	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		respondWithError(w, http.StatusBadRequest, "Missing surveyResponses or userId")
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		respondWithError(w, http.StatusNotFound, "Could not find survey response for user")
	case apperrors.IsType(err, apperrors.ErrorTypePersistence):
		logger.Error().Err(err).Msg("assessment persistence failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to save assessment")
	case apperrors.IsType(err, apperrors.ErrorTypeConfiguration):
		logger.Error().Err(err).Msg("assessment pipeline misconfigured")
		respondWithError(w, http.StatusInternalServerError, "Assessment service unavailable")
	default:
		logger.Error().Err(err).Msg("assessment generation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to generate assessment")
	}
}
