package services_test

import (
	"strings"
	"testing"

	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSurvey_KnownFieldOrder(t *testing.T) {
	survey := map[string]interface{}{
		"confidence":  float64(7),
		"primaryGoal": "lose weight",
		"sleep":       "6-7 hours",
	}

	out := services.NormalizeSurvey(survey)
	lines := strings.Split(out, "\n")

	assert.Equal(t, []string{
		"Primary goal: lose weight",
		"Confidence: 7",
		"Sleep: 6-7 hours",
	}, lines)
}

func TestNormalizeSurvey_Deterministic(t *testing.T) {
	survey := map[string]interface{}{
		"primaryGoal": "build strength",
		"preferences": []interface{}{"weightlifting", "hiking"},
		"zCustom":     "xyz",
		"aCustom":     map[string]interface{}{"b": float64(2), "a": float64(1)},
		"timeCommitment": map[string]interface{}{
			"daysPerWeek":       float64(3),
			"minutesPerSession": float64(45),
		},
	}

	first := services.NormalizeSurvey(survey)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, services.NormalizeSurvey(survey))
	}
}

func TestNormalizeSurvey_UnknownKeysSortedAfterKnown(t *testing.T) {
	survey := map[string]interface{}{
		"zebra":       "last",
		"alpha":       "first",
		"primaryGoal": "general fitness",
	}

	out := services.NormalizeSurvey(survey)
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Primary goal: general fitness", lines[0])
	assert.Equal(t, "alpha: first", lines[1])
	assert.Equal(t, "zebra: last", lines[2])
}

func TestNormalizeSurvey_PainOmittedWhenAbsent(t *testing.T) {
	cases := []map[string]interface{}{
		{"primaryGoal": "run a 5k"},
		{"primaryGoal": "run a 5k", "currentPain": map[string]interface{}{"hasPain": false}},
		{"primaryGoal": "run a 5k", "currentPain": map[string]interface{}{"hasPain": false, "description": "left ankle"}},
		{"primaryGoal": "run a 5k", "currentPain": map[string]interface{}{"description": "left ankle"}},
	}

	for _, survey := range cases {
		out := services.NormalizeSurvey(survey)
		assert.NotContains(t, strings.ToLower(out), "pain")
		assert.NotContains(t, out, "left ankle")
	}
}

func TestNormalizeSurvey_PainIncludedWhenReported(t *testing.T) {
	survey := map[string]interface{}{
		"currentPain": map[string]interface{}{"hasPain": true, "description": "lower back"},
	}

	out := services.NormalizeSurvey(survey)
	assert.Equal(t, "Current pain: lower back", out)
}

func TestNormalizeSurvey_TimeCommitmentPartial(t *testing.T) {
	survey := map[string]interface{}{
		"timeCommitment": map[string]interface{}{
			"daysPerWeek": float64(4),
		},
	}

	out := services.NormalizeSurvey(survey)
	assert.Equal(t, "Days per week: 4", out)
}

func TestNormalizeSurvey_EmptyInput(t *testing.T) {
	assert.Equal(t, "", services.NormalizeSurvey(nil))
	assert.Equal(t, "", services.NormalizeSurvey(map[string]interface{}{}))
}

func TestNormalizeSurvey_MalformedValuesSkipped(t *testing.T) {
	survey := map[string]interface{}{
		"primaryGoal": "stay active",
		"currentPain": "not an object",
		"preferences": []interface{}{},
	}

	out := services.NormalizeSurvey(survey)
	assert.Equal(t, "Primary goal: stay active", out)
}
