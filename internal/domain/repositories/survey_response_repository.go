package repositories

import (
	"context"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
)

// SurveyResponseRepository defines read access to survey responses. The
// pipeline never writes to this table.
type SurveyResponseRepository interface {
	// FindLatestByUserID returns the most recently created survey response
	// for the user, or a NOT_FOUND AppError when none exists.
	FindLatestByUserID(ctx context.Context, userID string) (*entities.SurveyResponse, error)
}
