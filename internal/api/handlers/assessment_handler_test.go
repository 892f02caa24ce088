package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/strideloop/fitadvisor-backend/internal/api/handlers"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stubAssessmentService struct {
	generateResult *entities.Assessment
	generateErr    error
	generateCalls  int

	reviseResult *entities.Assessment
	reviseErr    error
	reviseCalls  int
	lastRevision string

	getResult *entities.Assessment
	getErr    error
	gotID     string

	latestResult *entities.Assessment
	latestErr    error

	approveErr error
	approvedID string
}

func (s *stubAssessmentService) GenerateAssessment(_ context.Context, _ string, _ map[string]interface{}) (*entities.Assessment, error) {
	s.generateCalls++
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	return s.generateResult, nil
}

func (s *stubAssessmentService) ReviseAssessment(_ context.Context, _, _, _ string, _ map[string]interface{}, revisionOfID string) (*entities.Assessment, error) {
	s.reviseCalls++
	s.lastRevision = revisionOfID
	if s.reviseErr != nil {
		return nil, s.reviseErr
	}
	return s.reviseResult, nil
}

func (s *stubAssessmentService) GetAssessment(_ context.Context, id string) (*entities.Assessment, error) {
	s.gotID = id
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getResult, nil
}

func (s *stubAssessmentService) GetLatestAssessment(_ context.Context, _ string) (*entities.Assessment, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latestResult, nil
}

func (s *stubAssessmentService) ApproveAssessment(_ context.Context, id string) error {
	s.approvedID = id
	return s.approveErr
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	err := json.NewDecoder(w.Body).Decode(&body)
	assert.NoError(t, err)
	return body
}

func TestGenerateAssessment_Success(t *testing.T) {
	service := &stubAssessmentService{generateResult: &entities.Assessment{
		ID:             "assessment-1",
		AssessmentText: "You are off to a strong start.",
	}}
	handler := handlers.NewAssessmentHandler(service)

	body := `{"surveyResponses":{"primaryGoal":"lose weight"},"userId":"user-1"}`
	req := httptest.NewRequest("POST", "/api/assessment", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.GenerateAssessment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "You are off to a strong start.", response["assessment"])
	assert.Equal(t, "assessment-1", response["assessmentId"])
}

func TestGenerateAssessment_MissingFields(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`{}`,
		`{"userId":"user-1"}`,
		`{"surveyResponses":{"primaryGoal":"x"}}`,
		`{"surveyResponses":{},"userId":"user-1"}`,
	}

	for _, body := range cases {
		service := &stubAssessmentService{}
		handler := handlers.NewAssessmentHandler(service)

		req := httptest.NewRequest("POST", "/api/assessment", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.GenerateAssessment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		response := decodeBody(t, w)
		assert.Equal(t, "Missing surveyResponses or userId", response["error"])
		assert.Zero(t, service.generateCalls)
	}
}

func TestGenerateAssessment_SurveyNotFound(t *testing.T) {
	service := &stubAssessmentService{generateErr: apperrors.NewNotFoundError("no survey response")}
	handler := handlers.NewAssessmentHandler(service)

	body := `{"surveyResponses":{"primaryGoal":"x"},"userId":"user-1"}`
	req := httptest.NewRequest("POST", "/api/assessment", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.GenerateAssessment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Could not find survey response for user", response["error"])
}

func TestGenerateAssessment_InternalError(t *testing.T) {
	service := &stubAssessmentService{generateErr: apperrors.NewInternalError("model invocation failed", nil)}
	handler := handlers.NewAssessmentHandler(service)

	body := `{"surveyResponses":{"primaryGoal":"x"},"userId":"user-1"}`
	req := httptest.NewRequest("POST", "/api/assessment", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.GenerateAssessment(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Failed to generate assessment", response["error"])
}

func TestReviseAssessment_Success(t *testing.T) {
	service := &stubAssessmentService{reviseResult: &entities.Assessment{
		ID:             "assessment-2",
		AssessmentText: "Here is your adjusted assessment.",
		RevisionOf:     "assessment-1",
	}}
	handler := handlers.NewAssessmentHandler(service)

	body := `{
		"currentAssessment": "Original text.",
		"feedback": "Make it shorter.",
		"surveyResponses": {"primaryGoal": "lose weight"},
		"userId": "user-1",
		"revisionOfAssessmentId": "assessment-1"
	}`
	req := httptest.NewRequest("POST", "/api/assessment/feedback", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ReviseAssessment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, service.reviseCalls)
	assert.Equal(t, "assessment-1", service.lastRevision)

	response := decodeBody(t, w)
	assert.Equal(t, "Here is your adjusted assessment.", response["assessment"])
	assert.Equal(t, "assessment-2", response["assessmentId"])
}

func TestReviseAssessment_MissingFields(t *testing.T) {
	service := &stubAssessmentService{}
	handler := handlers.NewAssessmentHandler(service)

	body := `{"currentAssessment":"Original","feedback":"Shorter"}`
	req := httptest.NewRequest("POST", "/api/assessment/feedback", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ReviseAssessment(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Missing surveyResponses or userId", response["error"])
	assert.Zero(t, service.reviseCalls)
}

func TestGetLatestAssessment(t *testing.T) {
	service := &stubAssessmentService{latestResult: &entities.Assessment{ID: "assessment-7", UserID: "user-1"}}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("GET", "/api/assessment/latest?userId=user-1", nil)
	w := httptest.NewRecorder()

	handler.GetLatestAssessment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var assessment entities.Assessment
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&assessment))
	assert.Equal(t, "assessment-7", assessment.ID)
}

func TestGetLatestAssessment_NotFound(t *testing.T) {
	service := &stubAssessmentService{latestErr: apperrors.NewNotFoundError("none")}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("GET", "/api/assessment/latest?userId=user-1", nil)
	w := httptest.NewRecorder()

	handler.GetLatestAssessment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "No assessment found for user", response["error"])
}

func TestGetLatestAssessment_MissingUserID(t *testing.T) {
	handler := handlers.NewAssessmentHandler(&stubAssessmentService{})

	req := httptest.NewRequest("GET", "/api/assessment/latest", nil)
	w := httptest.NewRecorder()

	handler.GetLatestAssessment(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAssessment(t *testing.T) {
	service := &stubAssessmentService{getResult: &entities.Assessment{ID: "assessment-4", UserID: "user-1"}}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("GET", "/api/assessment/assessment-4", nil)
	req.SetPathValue("id", "assessment-4")
	w := httptest.NewRecorder()

	handler.GetAssessment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "assessment-4", service.gotID)

	var assessment entities.Assessment
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&assessment))
	assert.Equal(t, "assessment-4", assessment.ID)
}

func TestGetAssessment_NotFound(t *testing.T) {
	service := &stubAssessmentService{getErr: apperrors.NewNotFoundError("missing")}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("GET", "/api/assessment/assessment-4", nil)
	req.SetPathValue("id", "assessment-4")
	w := httptest.NewRecorder()

	handler.GetAssessment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Assessment not found", response["error"])
}

func TestApproveAssessment(t *testing.T) {
	service := &stubAssessmentService{}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("POST", "/api/assessment/assessment-5/approve", nil)
	req.SetPathValue("id", "assessment-5")
	w := httptest.NewRecorder()

	handler.ApproveAssessment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "assessment-5", service.approvedID)
}

func TestApproveAssessment_NotFound(t *testing.T) {
	service := &stubAssessmentService{approveErr: apperrors.NewNotFoundError("missing")}
	handler := handlers.NewAssessmentHandler(service)

	req := httptest.NewRequest("POST", "/api/assessment/assessment-5/approve", nil)
	req.SetPathValue("id", "assessment-5")
	w := httptest.NewRecorder()

	handler.ApproveAssessment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
