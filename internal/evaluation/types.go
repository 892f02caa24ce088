package evaluation

import "time"

// Difficulty buckets golden cases by how much the survey exercises the
// generator (sparse answers, unusual goals, conflicting constraints).
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty value is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenSurvey represents a labeled survey response with expectations on the
// assessment text produced from it.
type GoldenSurvey struct {
	ID              string                 `json:"id"`
	Survey          map[string]interface{} `json:"survey"`
	ExpectedPhrases []string               `json:"expected_phrases"`
	ForbiddenTerms  []string               `json:"forbidden_terms"`
	Difficulty      Difficulty             `json:"difficulty"`
}

// EvalResult holds the evaluation outcome for a single golden survey.
type EvalResult struct {
	CaseID          string
	Difficulty      Difficulty
	PhraseCoverage  float64
	GuardrailPassed bool
	Violations      []string
	OutputLength    int
	Latency         time.Duration
}

// EvalSummary holds aggregate metrics across all golden surveys. Averages
// cover completed cases only; generator failures count toward FailedCases.
type EvalSummary struct {
	TotalCases        int
	CompletedCases    int
	FailedCases       int
	AvgPhraseCoverage float64
	GuardrailPassRate float64
	AvgOutputLength   float64
	AvgLatency        time.Duration
	ByDifficulty      map[Difficulty]*DifficultySummary
}

// DifficultySummary holds metrics grouped by difficulty bucket.
type DifficultySummary struct {
	Count             int
	AvgPhraseCoverage float64
	GuardrailPassRate float64
}
