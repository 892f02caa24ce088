package entities

import "time"

// Assessment is one generated or revised personalized narrative. Rows are
// append-only: a revision inserts a new row pointing at the prior one via
// RevisionOf and never mutates or deletes the original. The current head for
// a user is the row with the greatest CreatedAt.
type Assessment struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	SurveyResponseID string    `json:"survey_response_id" db:"survey_response_id"`
	AssessmentText   string    `json:"assessment" db:"assessment"`
	Feedback         string    `json:"feedback,omitempty" db:"feedback"`
	RevisionOf       string    `json:"revision_of,omitempty" db:"revision_of"`
	Approved         bool      `json:"approved" db:"approved"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// IsRevision reports whether this row was produced from feedback on a prior
// assessment.
func (a *Assessment) IsRevision() bool {
	return a.RevisionOf != ""
}
