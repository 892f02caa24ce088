package services

import (
	"fmt"
	"strings"
	"time"
)

// FallbackGenerate assembles a templated but personalized assessment from
// the structured survey fields alone. It is the degradation path for model
// quota exhaustion: no network, no model, no randomness. The output leans on
// the same fields the real generator would reference so the user still gets
// a usable, specific narrative.
func FallbackGenerate(survey map[string]interface{}) string {
	var b strings.Builder

	goal := surveyString(survey, "primaryGoal")
	if goal != "" {
		b.WriteString(fmt.Sprintf("Thanks for completing your assessment. Your primary goal is clear: %s.", goal))
	} else {
		b.WriteString("Thanks for completing your assessment. You've taken the first step toward a more active life.")
	}

	if frequency := surveyString(survey, "activityFrequency"); frequency != "" {
		b.WriteString(fmt.Sprintf(" Right now you're active about %s days per week, which gives us a solid baseline to build from.", frequency))
	}

	if function := surveyString(survey, "physicalFunction"); function != "" {
		b.WriteString(fmt.Sprintf(" You described your current physical function as \"%s\", and your plan will start at a level that matches it.", function))
	}

	if pain := painDescription(survey); pain != "" {
		b.WriteString(fmt.Sprintf(" You mentioned some discomfort (%s), so your plan will work carefully around it and favor movements that don't aggravate it.", pain))
	}

	confidence := surveyString(survey, "confidence")
	importance := surveyString(survey, "importance")
	switch {
	case confidence != "" && importance != "":
		b.WriteString(fmt.Sprintf(" You rated the importance of this change %s and your confidence %s; we'll lean on that motivation while keeping early sessions achievable so confidence grows with each week.", importance, confidence))
	case confidence != "":
		b.WriteString(fmt.Sprintf(" You rated your confidence %s, and the early weeks are designed to build on it with small, repeatable wins.", confidence))
	case importance != "":
		b.WriteString(fmt.Sprintf(" You rated the importance of this change %s, and that motivation is the foundation we'll build on.", importance))
	}

	if preferences := surveyList(survey, "preferences"); preferences != "" {
		b.WriteString(fmt.Sprintf(" Since you enjoy %s, your plan will center on those activities.", preferences))
	}

	if equipment := surveyList(survey, "equipment"); equipment != "" {
		b.WriteString(fmt.Sprintf(" We'll make full use of what you have available: %s.", equipment))
	}

	if commitment := timeCommitmentSentence(survey); commitment != "" {
		b.WriteString(" " + commitment)
	}

	b.WriteString(" Consistency matters far more than intensity at this stage. Start where you are, progress gradually, and this plan will meet you there.")

	return b.String()
}

// FallbackRevise produces a revised assessment without the model. It keeps
// the prior narrative, acknowledges the feedback verbatim, and re-grounds
// the result in the current survey fields.
func FallbackRevise(priorAssessment, feedback string, survey map[string]interface{}) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(priorAssessment))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Update (%s): ", time.Now().UTC().Format("Jan 2, 2006")))

	if strings.TrimSpace(feedback) != "" {
		b.WriteString(fmt.Sprintf("You asked us to adjust this assessment: \"%s\". We've noted that and it will shape your plan going forward.", strings.TrimSpace(feedback)))
	} else {
		b.WriteString("We've noted your request to adjust this assessment and it will shape your plan going forward.")
	}

	if goal := surveyString(survey, "primaryGoal"); goal != "" {
		b.WriteString(fmt.Sprintf(" Your goal of %s remains the anchor for everything in your program.", goal))
	}

	return b.String()
}

func surveyString(survey map[string]interface{}, key string) string {
	if survey == nil {
		return ""
	}
	switch v := survey[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return renderScalar(v)
	default:
		return ""
	}
}

func surveyList(survey map[string]interface{}, key string) string {
	if survey == nil {
		return ""
	}
	items, ok := survey[key].([]interface{})
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", ")
}

func painDescription(survey map[string]interface{}) string {
	if survey == nil {
		return ""
	}
	pain, ok := survey["currentPain"].(map[string]interface{})
	if !ok {
		return ""
	}
	if hasPain, _ := pain["hasPain"].(bool); !hasPain {
		return ""
	}
	description, _ := pain["description"].(string)
	return strings.TrimSpace(description)
}

func timeCommitmentSentence(survey map[string]interface{}) string {
	commitment, ok := survey["timeCommitment"].(map[string]interface{})
	if !ok {
		return ""
	}

	days := renderOptionalScalar(commitment["daysPerWeek"])
	minutes := renderOptionalScalar(commitment["minutesPerSession"])
	timeOfDay, _ := commitment["preferredTimeOfDay"].(string)
	timeOfDay = strings.TrimSpace(timeOfDay)

	switch {
	case days != "" && minutes != "" && timeOfDay != "":
		return fmt.Sprintf("With %s sessions of about %s minutes each week, ideally in the %s, you have enough time to make real progress.", days, minutes, strings.ToLower(timeOfDay))
	case days != "" && minutes != "":
		return fmt.Sprintf("With %s sessions of about %s minutes each week, you have enough time to make real progress.", days, minutes)
	case days != "":
		return fmt.Sprintf("Training %s days per week is a realistic rhythm we can sustain.", days)
	default:
		return ""
	}
}

func renderOptionalScalar(value interface{}) string {
	if value == nil {
		return ""
	}
	return renderScalar(value)
}
