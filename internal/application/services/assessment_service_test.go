package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stubSurveyRepo struct {
	response *entities.SurveyResponse
	err      error
	calls    int
}

func (s *stubSurveyRepo) FindLatestByUserID(_ context.Context, _ string) (*entities.SurveyResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type stubAssessmentRepo struct {
	inserted  []*entities.Assessment
	insertErr error
	latest    *entities.Assessment
	latestErr error
	approved  []string
}

func (s *stubAssessmentRepo) Insert(_ context.Context, assessment *entities.Assessment) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	if assessment.ID == "" {
		assessment.ID = fmt.Sprintf("assessment-%d", len(s.inserted)+1)
	}
	s.inserted = append(s.inserted, assessment)
	return assessment.ID, nil
}

func (s *stubAssessmentRepo) GetByID(_ context.Context, id string) (*entities.Assessment, error) {
	for _, a := range s.inserted {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperrors.NewNotFoundError("assessment not found")
}

func (s *stubAssessmentRepo) FindLatestByUserID(_ context.Context, _ string) (*entities.Assessment, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latest, nil
}

func (s *stubAssessmentRepo) Approve(_ context.Context, id string) error {
	s.approved = append(s.approved, id)
	return nil
}

type stubModel struct {
	text  string
	err   error
	calls int
	last  providers.ModelRequest
}

func (s *stubModel) Generate(_ context.Context, req providers.ModelRequest) (string, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubModel) Model() string {
	return "gpt-test"
}

type stubInvocationTracker struct {
	invocations chan *providers.PromptInvocation
}

func newStubInvocationTracker() *stubInvocationTracker {
	return &stubInvocationTracker{invocations: make(chan *providers.PromptInvocation, 4)}
}

func (s *stubInvocationTracker) GetPrompt(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (s *stubInvocationTracker) TrackInvocation(_ context.Context, event *providers.PromptInvocation) error {
	s.invocations <- event
	return nil
}

func (s *stubInvocationTracker) wait(t *testing.T) *providers.PromptInvocation {
	t.Helper()
	select {
	case event := <-s.invocations:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no invocation tracked")
		return nil
	}
}

type publishedEvent struct {
	channel string
	event   *entities.AssessmentEvent
}

type capturingEventBus struct {
	published chan publishedEvent
}

func newCapturingEventBus() *capturingEventBus {
	return &capturingEventBus{published: make(chan publishedEvent, 4)}
}

func (b *capturingEventBus) Publish(_ context.Context, channel string, event *entities.AssessmentEvent) error {
	b.published <- publishedEvent{channel: channel, event: event}
	return nil
}

func (b *capturingEventBus) Subscribe(_ context.Context, _ string) (<-chan *entities.AssessmentEvent, error) {
	return nil, fmt.Errorf("not implemented")
}

func (b *capturingEventBus) Close() error { return nil }

func (b *capturingEventBus) wait(t *testing.T) publishedEvent {
	t.Helper()
	select {
	case p := <-b.published:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return publishedEvent{}
	}
}

func newTestService(t *testing.T, surveys *stubSurveyRepo, assessments *stubAssessmentRepo, model providers.ModelProvider) *services.AssessmentService {
	t.Helper()
	return newTestServiceWith(t, surveys, assessments, model, nil, nil)
}

func newTestServiceWith(t *testing.T, surveys *stubSurveyRepo, assessments *stubAssessmentRepo, model providers.ModelProvider, tracker providers.PromptProvider, bus providers.EventBus) *services.AssessmentService {
	t.Helper()

	svc, err := services.NewAssessmentService(
		surveys,
		assessments,
		model,
		services.NewContextRetrievalService(nil, nil),
		services.NewPromptResolver(nil, nil, "gen", "rev"),
		tracker,
		bus,
		nil,
		"test",
		0.7,
	)
	assert.NoError(t, err)
	return svc
}

func defaultSurveyRepo() *stubSurveyRepo {
	return &stubSurveyRepo{response: &entities.SurveyResponse{
		ID:        "survey-1",
		UserID:    "user-1",
		Response:  map[string]interface{}{"primaryGoal": "lose weight"},
		CreatedAt: time.Now().UTC(),
	}}
}

func TestNewAssessmentService_RequiresModelProvider(t *testing.T) {
	_, err := services.NewAssessmentService(
		defaultSurveyRepo(),
		&stubAssessmentRepo{},
		nil,
		nil,
		nil,
		nil,
		nil,
		nil,
		"test",
		0.7,
	)

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestGenerateAssessment_Success(t *testing.T) {
	surveys := defaultSurveyRepo()
	assessments := &stubAssessmentRepo{}
	model := &stubModel{text: "You are off to a strong start toward losing weight."}
	svc := newTestService(t, surveys, assessments, model)

	survey := map[string]interface{}{"primaryGoal": "lose weight"}
	result, err := svc.GenerateAssessment(context.Background(), "user-1", survey)

	assert.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	assert.Len(t, assessments.inserted, 1)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, "survey-1", result.SurveyResponseID)
	assert.Equal(t, model.text, result.AssessmentText)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.IsRevision())

	assert.Contains(t, model.last.User, "Primary goal: lose weight")
	assert.Contains(t, model.last.User, "Never invent or infer")
}

func TestGenerateAssessment_MissingInput(t *testing.T) {
	surveys := defaultSurveyRepo()
	model := &stubModel{text: "text"}
	svc := newTestService(t, surveys, &stubAssessmentRepo{}, model)

	_, err := svc.GenerateAssessment(context.Background(), "", map[string]interface{}{"primaryGoal": "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.GenerateAssessment(context.Background(), "user-1", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Zero(t, model.calls)
	assert.Zero(t, surveys.calls)
}

func TestGenerateAssessment_SurveyNotFoundShortCircuits(t *testing.T) {
	surveys := &stubSurveyRepo{err: apperrors.NewNotFoundError("no survey response for user")}
	model := &stubModel{text: "text"}
	svc := newTestService(t, surveys, &stubAssessmentRepo{}, model)

	_, err := svc.GenerateAssessment(context.Background(), "user-1", map[string]interface{}{"primaryGoal": "x"})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Zero(t, model.calls)
}

func TestGenerateAssessment_QuotaFallsBack(t *testing.T) {
	surveys := defaultSurveyRepo()
	assessments := &stubAssessmentRepo{}
	model := &stubModel{err: fmt.Errorf("status 429: %w", providers.ErrQuotaExceeded)}
	svc := newTestService(t, surveys, assessments, model)

	survey := map[string]interface{}{"primaryGoal": "lose weight"}
	result, err := svc.GenerateAssessment(context.Background(), "user-1", survey)

	assert.NoError(t, err)
	assert.Len(t, assessments.inserted, 1)
	assert.Contains(t, result.AssessmentText, "lose weight")
}

func TestGenerateAssessment_ModelFailurePropagates(t *testing.T) {
	surveys := defaultSurveyRepo()
	assessments := &stubAssessmentRepo{}
	model := &stubModel{err: fmt.Errorf("upstream timeout")}
	svc := newTestService(t, surveys, assessments, model)

	_, err := svc.GenerateAssessment(context.Background(), "user-1", map[string]interface{}{"primaryGoal": "x"})

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Empty(t, assessments.inserted)
}

func TestReviseAssessment_SetsRevisionChain(t *testing.T) {
	surveys := defaultSurveyRepo()
	assessments := &stubAssessmentRepo{}
	model := &stubModel{text: "Here is your adjusted assessment."}
	svc := newTestService(t, surveys, assessments, model)

	survey := map[string]interface{}{"primaryGoal": "lose weight"}
	result, err := svc.ReviseAssessment(
		context.Background(),
		"user-1",
		"Original assessment text.",
		"Make it shorter.",
		survey,
		"assessment-0",
	)

	assert.NoError(t, err)
	assert.Len(t, assessments.inserted, 1)
	assert.Equal(t, "assessment-0", result.RevisionOf)
	assert.Equal(t, "Make it shorter.", result.Feedback)
	assert.Equal(t, "survey-1", result.SurveyResponseID)
	assert.True(t, result.IsRevision())

	assert.Contains(t, model.last.User, "Original assessment text.")
	assert.Contains(t, model.last.User, "Make it shorter.")
}

func TestReviseAssessment_QuotaFallsBack(t *testing.T) {
	surveys := defaultSurveyRepo()
	assessments := &stubAssessmentRepo{}
	model := &stubModel{err: fmt.Errorf("insufficient_quota: %w", providers.ErrQuotaExceeded)}
	svc := newTestService(t, surveys, assessments, model)

	survey := map[string]interface{}{"primaryGoal": "lose weight"}
	result, err := svc.ReviseAssessment(
		context.Background(),
		"user-1",
		"Original assessment text.",
		"Focus more on nutrition.",
		survey,
		"",
	)

	assert.NoError(t, err)
	assert.Contains(t, result.AssessmentText, "Original assessment text.")
	assert.Contains(t, result.AssessmentText, "Focus more on nutrition.")
}

func TestGenerateAssessment_TracksBoundVariables(t *testing.T) {
	surveys := defaultSurveyRepo()
	tracker := newStubInvocationTracker()
	svc := newTestServiceWith(t, surveys, &stubAssessmentRepo{}, &stubModel{text: "x"}, tracker, nil)

	_, err := svc.GenerateAssessment(context.Background(), "user-1", map[string]interface{}{"primaryGoal": "lose weight"})
	assert.NoError(t, err)

	invocation := tracker.wait(t)
	assert.Equal(t, "gen", invocation.PromptID)
	assert.Equal(t, "test", invocation.Environment)
	assert.NotEmpty(t, invocation.Variables)
	assert.Contains(t, invocation.Variables["survey"], "Primary goal: lose weight")
}

func TestReviseAssessment_TracksBoundVariables(t *testing.T) {
	surveys := defaultSurveyRepo()
	tracker := newStubInvocationTracker()
	svc := newTestServiceWith(t, surveys, &stubAssessmentRepo{}, &stubModel{text: "x"}, tracker, nil)

	_, err := svc.ReviseAssessment(
		context.Background(),
		"user-1",
		"Original assessment text.",
		"Make it shorter.",
		map[string]interface{}{"primaryGoal": "lose weight"},
		"assessment-0",
	)
	assert.NoError(t, err)

	invocation := tracker.wait(t)
	assert.Equal(t, "rev", invocation.PromptID)
	assert.Equal(t, "Original assessment text.", invocation.Variables["assessment"])
	assert.Equal(t, "Make it shorter.", invocation.Variables["feedback"])
	assert.Contains(t, invocation.Variables["survey"], "Primary goal: lose weight")
}

func TestGenerateAssessment_PublishesGlobalAndUserEvents(t *testing.T) {
	surveys := defaultSurveyRepo()
	bus := newCapturingEventBus()
	svc := newTestServiceWith(t, surveys, &stubAssessmentRepo{}, &stubModel{text: "x"}, nil, bus)

	result, err := svc.GenerateAssessment(context.Background(), "user-1", map[string]interface{}{"primaryGoal": "lose weight"})
	assert.NoError(t, err)

	first := bus.wait(t)
	second := bus.wait(t)

	channels := []string{first.channel, second.channel}
	assert.Contains(t, channels, providers.EventChannelAssessments)
	assert.Contains(t, channels, providers.GetUserChannel("user-1"))
	assert.Equal(t, entities.AssessmentCreated, first.event.Type)
	assert.Equal(t, result.ID, first.event.AssessmentID)
}

func TestGetLatestAssessment(t *testing.T) {
	latest := &entities.Assessment{ID: "assessment-9", UserID: "user-1"}
	assessments := &stubAssessmentRepo{latest: latest}
	svc := newTestService(t, defaultSurveyRepo(), assessments, &stubModel{text: "x"})

	result, err := svc.GetLatestAssessment(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "assessment-9", result.ID)

	_, err = svc.GetLatestAssessment(context.Background(), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestGetAssessment(t *testing.T) {
	assessments := &stubAssessmentRepo{}
	svc := newTestService(t, defaultSurveyRepo(), assessments, &stubModel{text: "x"})

	created, err := svc.GenerateAssessment(context.Background(), "user-1", map[string]interface{}{"primaryGoal": "x"})
	assert.NoError(t, err)

	result, err := svc.GetAssessment(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, result.ID)

	_, err = svc.GetAssessment(context.Background(), "no-such-id")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.GetAssessment(context.Background(), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestApproveAssessment(t *testing.T) {
	assessments := &stubAssessmentRepo{}
	svc := newTestService(t, defaultSurveyRepo(), assessments, &stubModel{text: "x"})

	err := svc.ApproveAssessment(context.Background(), "assessment-3")
	assert.NoError(t, err)
	assert.Equal(t, []string{"assessment-3"}, assessments.approved)

	err = svc.ApproveAssessment(context.Background(), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
