package entities

import "time"

// SurveyResponse is one user's onboarding questionnaire submission at a point
// in time. Response is an open map of question key to answer; answers may be
// scalars, arrays, or nested objects. The pipeline only ever reads the most
// recent response per user and never writes back to this entity.
type SurveyResponse struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Response  map[string]interface{} `json:"response" db:"response"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}
