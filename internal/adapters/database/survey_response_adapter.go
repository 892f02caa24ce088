package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/postgres"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
	apperrors "github.com/strideloop/fitadvisor-backend/pkg/errors"
)

// SurveyResponseAdapter implements read-only survey response access in
// Postgres. The pipeline never inserts or updates this table.
type SurveyResponseAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewSurveyResponseAdapter creates a new survey response adapter.
func NewSurveyResponseAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.SurveyResponseRepository {
	return &SurveyResponseAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// FindLatestByUserID returns the most recently created survey response for
// the user.
func (a *SurveyResponseAdapter) FindLatestByUserID(ctx context.Context, userID string) (*entities.SurveyResponse, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	query, args, err := a.db.From("survey_responses").
		Select("id", "user_id", "response", "created_at").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build survey response query", err)
	}

	var (
		response    entities.SurveyResponse
		rawResponse []byte
	)
	start := time.Now()
	row := a.client.DB().QueryRowContext(ctx, query, args...)
	err = row.Scan(&response.ID, &response.UserID, &rawResponse, &response.CreatedAt)
	observability.RecordDBMetric(ctx, a.metrics, "survey_responses.find_latest", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("no survey response for user %s", userID))
		}
		return nil, apperrors.NewPersistenceError("failed to query survey response", err)
	}

	if len(rawResponse) > 0 {
		if err := json.Unmarshal(rawResponse, &response.Response); err != nil {
			return nil, apperrors.NewPersistenceError("failed to decode survey response payload", err)
		}
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	return &response, nil
}
