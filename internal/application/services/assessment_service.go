package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const systemPrompt = "You are the assessment writer for a personal fitness coaching product."

// AssessmentService runs the full generation and revision pipeline: resolve
// the user's latest survey row, bind a prompt, invoke the model (degrading to
// the templated fallback on quota exhaustion), persist the result append-only,
// and announce it on the event bus.
type AssessmentService struct {
	surveys     repositories.SurveyResponseRepository
	assessments repositories.AssessmentRepository
	model       providers.ModelProvider
	retriever   *ContextRetrievalService
	prompts     *PromptResolver
	tracker     providers.PromptProvider
	bus         providers.EventBus
	metrics     *observability.Metrics
	environment string
	temperature float64
}

// NewAssessmentService creates the pipeline service. A nil model provider is
// a deployment defect and fails construction immediately; retriever misses,
// registry misses, tracker misses and bus misses are all survivable.
func NewAssessmentService(
	surveys repositories.SurveyResponseRepository,
	assessments repositories.AssessmentRepository,
	model providers.ModelProvider,
	retriever *ContextRetrievalService,
	prompts *PromptResolver,
	tracker providers.PromptProvider,
	bus providers.EventBus,
	metrics *observability.Metrics,
	environment string,
	temperature float64,
) (*AssessmentService, error) {
	if model == nil {
		return nil, apperrors.NewConfigurationError("model provider credential is missing")
	}
	if surveys == nil || assessments == nil {
		return nil, apperrors.NewConfigurationError("survey and assessment repositories are required")
	}
	if prompts == nil {
		prompts = NewPromptResolver(nil, nil, "", "")
	}

	return &AssessmentService{
		surveys:     surveys,
		assessments: assessments,
		model:       model,
		retriever:   retriever,
		prompts:     prompts,
		tracker:     tracker,
		bus:         bus,
		metrics:     metrics,
		environment: environment,
		temperature: temperature,
	}, nil
}

// GenerateAssessment produces and persists an initial assessment for the
// user's latest survey response.
func (s *AssessmentService) GenerateAssessment(ctx context.Context, userID string, surveyResponses map[string]interface{}) (*entities.Assessment, error) {
	if userID == "" || len(surveyResponses) == 0 {
		return nil, apperrors.NewValidationError("surveyResponses and userId are required")
	}

	// Resolve the survey row before any model work so an unservable request
	// costs nothing.
	surveyRow, err := s.surveys.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	surveyText := NormalizeSurvey(surveyResponses)
	chunks := s.retriever.Retrieve(ctx, surveyText, DefaultRetrievalK)
	if s.metrics != nil {
		s.metrics.RetrievalChunkHist.Record(ctx, int64(len(chunks)))
	}

	prompt := s.prompts.Resolve(ctx, PromptGeneration)
	vars := map[string]string{
		"survey": AppendContext(surveyText, chunks),
	}
	bound := BindPrompt(prompt.Template, vars)

	text, usedFallback, err := s.invokeModel(ctx, bound, func() string {
		return FallbackGenerate(surveyResponses)
	})
	if err != nil {
		return nil, err
	}

	assessment := &entities.Assessment{
		UserID:           userID,
		SurveyResponseID: surveyRow.ID,
		AssessmentText:   text,
	}
	if _, err := s.assessments.Insert(ctx, assessment); err != nil {
		return nil, err
	}

	s.trackInvocation(PromptGeneration, prompt.FromRegistry, vars, len(chunks), usedFallback)
	s.publishEvent(entities.AssessmentCreated, assessment)

	return assessment, nil
}

// ReviseAssessment produces and persists a new assessment row from feedback
// on a prior one. The row re-anchors to the user's latest survey response at
// revision time, even when that differs from the response the original
// assessment was generated against.
func (s *AssessmentService) ReviseAssessment(ctx context.Context, userID, currentAssessment, feedback string, surveyResponses map[string]interface{}, revisionOfID string) (*entities.Assessment, error) {
	if userID == "" || len(surveyResponses) == 0 {
		return nil, apperrors.NewValidationError("surveyResponses and userId are required")
	}

	surveyRow, err := s.surveys.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	surveyText := NormalizeSurvey(surveyResponses)

	prompt := s.prompts.Resolve(ctx, PromptRevision)
	vars := map[string]string{
		"assessment": currentAssessment,
		"feedback":   feedback,
		"survey":     surveyText,
	}
	bound := BindPrompt(prompt.Template, vars)

	text, usedFallback, err := s.invokeModel(ctx, bound, func() string {
		return FallbackRevise(currentAssessment, feedback, surveyResponses)
	})
	if err != nil {
		return nil, err
	}

	assessment := &entities.Assessment{
		UserID:           userID,
		SurveyResponseID: surveyRow.ID,
		AssessmentText:   text,
		Feedback:         feedback,
		RevisionOf:       revisionOfID,
	}
	if _, err := s.assessments.Insert(ctx, assessment); err != nil {
		return nil, err
	}

	s.trackInvocation(PromptRevision, prompt.FromRegistry, vars, 0, usedFallback)
	s.publishEvent(entities.AssessmentRevised, assessment)

	return assessment, nil
}

// GetAssessment returns a single assessment row by id.
func (s *AssessmentService) GetAssessment(ctx context.Context, id string) (*entities.Assessment, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("assessment id is required")
	}
	return s.assessments.GetByID(ctx, id)
}

// GetLatestAssessment returns the user's head assessment row.
func (s *AssessmentService) GetLatestAssessment(ctx context.Context, userID string) (*entities.Assessment, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}
	return s.assessments.FindLatestByUserID(ctx, userID)
}

// ApproveAssessment flips the approved flag on an existing row.
func (s *AssessmentService) ApproveAssessment(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("assessment id is required")
	}
	return s.assessments.Approve(ctx, id)
}

// invokeModel calls the model provider with the bound prompt. Quota
// exhaustion degrades to the supplied fallback; every other failure
// propagates as an internal error.
func (s *AssessmentService) invokeModel(ctx context.Context, bound string, fallback func() string) (string, bool, error) {
	text, err := s.model.Generate(ctx, providers.ModelRequest{
		System:      systemPrompt,
		User:        bound,
		Temperature: s.temperature,
	})
	if err == nil {
		return text, false, nil
	}

	if errors.Is(err, providers.ErrQuotaExceeded) {
		log.Warn().Err(err).Msg("model quota exhausted, using degradation fallback")
		if s.metrics != nil {
			s.metrics.FallbackCount.Add(ctx, 1, metric.WithAttributes(
				attribute.String("ai.model", s.model.Model()),
			))
		}
		return fallback(), true, nil
	}

	return "", false, apperrors.NewInternalError("model invocation failed", err)
}

// trackInvocation records the model call for prompt analytics. It runs
// detached and is never joined: its latency or failure cannot reach the
// user-visible response.
func (s *AssessmentService) trackInvocation(kind PromptKind, fromRegistry bool, vars map[string]string, chunkCount int, usedFallback bool) {
	if s.tracker == nil {
		return
	}

	event := &providers.PromptInvocation{
		PromptID:     s.prompts.PromptID(kind),
		Variables:    vars,
		Environment:  s.environment,
		FromRegistry: fromRegistry,
		ChunkCount:   chunkCount,
		Model:        s.model.Model(),
		Temperature:  s.temperature,
		Metadata: map[string]interface{}{
			"used_fallback": usedFallback,
		},
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Interface("panic", r).Msg("invocation tracking panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.tracker.TrackInvocation(ctx, event); err != nil {
			log.Debug().Err(err).Str("prompt_id", event.PromptID).Msg("invocation tracking failed")
		}
	}()
}

// publishEvent announces the persisted row on the event bus, fire-and-forget.
// Every event lands on the global channel and on the owning user's channel.
func (s *AssessmentService) publishEvent(eventType string, assessment *entities.Assessment) {
	if s.bus == nil {
		return
	}

	event := &entities.AssessmentEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		AssessmentID: assessment.ID,
		UserID:       assessment.UserID,
		RevisionOf:   assessment.RevisionOf,
		Timestamp:    time.Now().UTC(),
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Interface("panic", r).Msg("event publish panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.bus.Publish(ctx, providers.EventChannelAssessments, event); err != nil {
			log.Debug().Err(err).Str("event_id", event.ID).Msg("event publish failed")
		}
		if err := s.bus.Publish(ctx, providers.GetUserChannel(event.UserID), event); err != nil {
			log.Debug().Err(err).Str("event_id", event.ID).Msg("user event publish failed")
		}
	}()
}
