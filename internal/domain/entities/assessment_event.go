package entities

import "time"

// Assessment event types published on the event bus.
const (
	AssessmentCreated = "assessment.created"
	AssessmentRevised = "assessment.revised"
)

// AssessmentEvent announces a newly persisted assessment row to downstream
// consumers (e.g. the exercise-program generator). Published fire-and-forget.
type AssessmentEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	AssessmentID string    `json:"assessment_id"`
	UserID       string    `json:"user_id"`
	RevisionOf   string    `json:"revision_of,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
