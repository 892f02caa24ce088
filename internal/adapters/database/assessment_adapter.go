package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/postgres"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
)

// AssessmentAdapter implements append-only assessment persistence in
// Postgres. Rows are inserted, never updated or deleted; the single
// exception is Approve, which flips the approved flag.
type AssessmentAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewAssessmentAdapter creates a new assessment adapter.
func NewAssessmentAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.AssessmentRepository {
	return &AssessmentAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Insert persists a new assessment row and returns its id.
func (a *AssessmentAdapter) Insert(ctx context.Context, assessment *entities.Assessment) (string, error) {
	if assessment == nil {
		return "", apperrors.NewPersistenceError("assessment is nil", errors.New("assessment is nil"))
	}

	if assessment.ID == "" {
		assessment.ID = uuid.New().String()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":                 assessment.ID,
		"user_id":            assessment.UserID,
		"survey_response_id": assessment.SurveyResponseID,
		"assessment":         assessment.AssessmentText,
		"feedback":           sql.NullString{String: assessment.Feedback, Valid: assessment.Feedback != ""},
		"revision_of":        sql.NullString{String: assessment.RevisionOf, Valid: assessment.RevisionOf != ""},
		"approved":           assessment.Approved,
		"created_at":         assessment.CreatedAt,
	}

	query, args, err := a.db.Insert("assessments").Rows(record).ToSQL()
	if err != nil {
		return "", apperrors.NewPersistenceError("failed to build assessment insert query", err)
	}

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "assessments.insert", time.Since(start))
	if err != nil {
		return "", apperrors.NewPersistenceError("failed to insert assessment", err)
	}

	return assessment.ID, nil
}

// GetByID returns a single assessment row.
func (a *AssessmentAdapter) GetByID(ctx context.Context, id string) (*entities.Assessment, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("assessment id is required")
	}

	query, args, err := a.selectAssessments().
		Where(goqu.Ex{"id": id}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build assessment query", err)
	}

	return a.scanOne(ctx, "assessments.get", query, args, fmt.Sprintf("assessment %s not found", id))
}

// FindLatestByUserID returns the user's head assessment (greatest created_at).
func (a *AssessmentAdapter) FindLatestByUserID(ctx context.Context, userID string) (*entities.Assessment, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	query, args, err := a.selectAssessments().
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build assessment query", err)
	}

	return a.scanOne(ctx, "assessments.find_latest", query, args, fmt.Sprintf("no assessment for user %s", userID))
}

// Approve flips the approved flag on an existing row.
func (a *AssessmentAdapter) Approve(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("assessment id is required")
	}

	query, args, err := a.db.Update("assessments").
		Set(goqu.Record{"approved": true}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build assessment approve query", err)
	}

	start := time.Now()
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "assessments.approve", time.Since(start))
	if err != nil {
		return apperrors.NewPersistenceError("failed to approve assessment", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("assessment %s not found", id))
	}

	return nil
}

func (a *AssessmentAdapter) selectAssessments() *goqu.SelectDataset {
	return a.db.From("assessments").
		Select("id", "user_id", "survey_response_id", "assessment", "feedback", "revision_of", "approved", "created_at")
}

func (a *AssessmentAdapter) scanOne(ctx context.Context, operation, query string, args []interface{}, notFoundMsg string) (*entities.Assessment, error) {
	var (
		assessment entities.Assessment
		feedback   sql.NullString
		revisionOf sql.NullString
	)

	start := time.Now()
	row := a.client.DB().QueryRowContext(ctx, query, args...)
	err := row.Scan(
		&assessment.ID,
		&assessment.UserID,
		&assessment.SurveyResponseID,
		&assessment.AssessmentText,
		&feedback,
		&revisionOf,
		&assessment.Approved,
		&assessment.CreatedAt,
	)
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(notFoundMsg)
		}
		return nil, apperrors.NewPersistenceError("failed to query assessment", err)
	}

	assessment.Feedback = feedback.String
	assessment.RevisionOf = revisionOf.String
	return &assessment, nil
}
