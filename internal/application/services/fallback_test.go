package services_test

import (
	"strings"
	"testing"

	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/stretchr/testify/assert"
)

func TestFallbackGenerate_ReferencesSurveyFields(t *testing.T) {
	survey := map[string]interface{}{
		"primaryGoal":       "lose weight",
		"activityFrequency": "2",
		"preferences":       []interface{}{"walking", "swimming"},
		"equipment":         []interface{}{"resistance bands"},
		"timeCommitment": map[string]interface{}{
			"daysPerWeek":        float64(3),
			"minutesPerSession":  float64(30),
			"preferredTimeOfDay": "Morning",
		},
	}

	out := services.FallbackGenerate(survey)

	assert.Contains(t, out, "lose weight")
	assert.Contains(t, out, "walking, swimming")
	assert.Contains(t, out, "resistance bands")
	assert.Contains(t, out, "3 sessions of about 30 minutes")
	assert.Contains(t, out, "morning")
}

func TestFallbackGenerate_NoPainWhenNotReported(t *testing.T) {
	survey := map[string]interface{}{
		"primaryGoal": "build strength",
		"currentPain": map[string]interface{}{"hasPain": false, "description": "old knee injury"},
	}

	out := services.FallbackGenerate(survey)

	assert.NotContains(t, strings.ToLower(out), "discomfort")
	assert.NotContains(t, out, "old knee injury")
}

func TestFallbackGenerate_MentionsPainWhenReported(t *testing.T) {
	survey := map[string]interface{}{
		"currentPain": map[string]interface{}{"hasPain": true, "description": "lower back"},
	}

	out := services.FallbackGenerate(survey)
	assert.Contains(t, out, "lower back")
}

func TestFallbackGenerate_EmptySurveyStillProducesText(t *testing.T) {
	out := services.FallbackGenerate(map[string]interface{}{})
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "Thanks for completing your assessment")
}

func TestFallbackRevise_KeepsPriorTextAndFeedback(t *testing.T) {
	prior := "Your starting point is solid and your goal is within reach."
	feedback := "Please make the plan less intense."
	survey := map[string]interface{}{"primaryGoal": "general fitness"}

	out := services.FallbackRevise(prior, feedback, survey)

	assert.Contains(t, out, prior)
	assert.Contains(t, out, feedback)
	assert.Contains(t, out, "general fitness")
	assert.True(t, strings.Index(out, prior) < strings.Index(out, feedback))
}

func TestFallbackRevise_EmptyFeedback(t *testing.T) {
	out := services.FallbackRevise("Prior text.", "  ", nil)
	assert.Contains(t, out, "Prior text.")
	assert.Contains(t, out, "We've noted your request")
}
