package repositories

import (
	"context"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
)

// AssessmentRepository defines persistence for assessments. Inserts are
// append-only; the only permitted mutation is flipping the approved flag.
type AssessmentRepository interface {
	// Insert persists a new assessment row and returns its id.
	Insert(ctx context.Context, assessment *entities.Assessment) (string, error)

	// GetByID returns a single assessment row.
	GetByID(ctx context.Context, id string) (*entities.Assessment, error)

	// FindLatestByUserID returns the user's head assessment (greatest
	// created_at), or a NOT_FOUND AppError when none exists.
	FindLatestByUserID(ctx context.Context, userID string) (*entities.Assessment, error)

	// Approve flips the approved flag on an existing row. Text, feedback and
	// the revision chain are never touched.
	Approve(ctx context.Context, id string) error
}
