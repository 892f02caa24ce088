package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Survey question keys the normalizer knows how to render. Order here is the
// output order; repeated normalization of identical input is byte-identical.
var knownSurveyFields = []surveyField{
	{key: "primaryGoal", label: "Primary goal"},
	{key: "medicalClearance", label: "Medical clearance"},
	{key: "currentPain", render: renderPain},
	{key: "activityFrequency", label: "Activity frequency"},
	{key: "physicalFunction", label: "Physical function"},
	{key: "intent", label: "Intent to change"},
	{key: "importance", label: "Importance"},
	{key: "confidence", label: "Confidence"},
	{key: "sleep", label: "Sleep"},
	{key: "tobaccoUse", label: "Tobacco use"},
	{key: "preferences", label: "Exercise preferences"},
	{key: "equipment", label: "Available equipment"},
	{key: "timeCommitment", render: renderTimeCommitment},
}

type surveyField struct {
	key    string
	label  string
	render func(value interface{}) []string
}

// NormalizeSurvey converts a loosely-typed survey response into a
// deterministic text block. It never fails on malformed input: values it
// cannot interpret are skipped. Unrecognized keys follow the known ones in
// lexicographic order. Pain answers surface only when hasPain is true.
func NormalizeSurvey(survey map[string]interface{}) string {
	if len(survey) == 0 {
		return ""
	}

	var lines []string
	seen := make(map[string]bool, len(knownSurveyFields))

	for _, field := range knownSurveyFields {
		seen[field.key] = true
		value, ok := survey[field.key]
		if !ok || value == nil {
			continue
		}

		if field.render != nil {
			lines = append(lines, field.render(value)...)
			continue
		}

		if line := renderLabeled(field.label, value); line != "" {
			lines = append(lines, line)
		}
	}

	var rest []string
	for key := range survey {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	for _, key := range rest {
		value := survey[key]
		if value == nil {
			continue
		}
		if line := renderLabeled(key, value); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// renderLabeled renders "Label: value" for scalars and arrays, and a compact
// textual form for anything nested. Empty arrays are omitted.
func renderLabeled(label string, value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return fmt.Sprintf("%s: %s", label, strings.TrimSpace(v))
	case bool:
		return fmt.Sprintf("%s: %t", label, v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := renderScalar(item); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		return fmt.Sprintf("%s: %s", label, strings.Join(parts, ", "))
	case map[string]interface{}:
		// json.Marshal sorts map keys, keeping output stable.
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s: %s", label, string(encoded))
	default:
		if s := renderScalar(v); s != "" {
			return fmt.Sprintf("%s: %s", label, s)
		}
		return ""
	}
}

func renderScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers arrive as float64; render integers without decimals.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// renderPain emits a pain line only when hasPain is explicitly true. A false
// or absent hasPain produces no pain-related output at all, so the model is
// never handed a pain description it could hallucinate from.
func renderPain(value interface{}) []string {
	pain, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	hasPain, _ := pain["hasPain"].(bool)
	if !hasPain {
		return nil
	}

	description, _ := pain["description"].(string)
	description = strings.TrimSpace(description)
	if description == "" {
		return []string{"Current pain: yes"}
	}
	return []string{fmt.Sprintf("Current pain: %s", description)}
}

// renderTimeCommitment emits up to three lines, each omitted individually
// when absent or empty.
func renderTimeCommitment(value interface{}) []string {
	commitment, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	var lines []string
	if value := commitment["daysPerWeek"]; value != nil {
		if days := renderScalar(value); days != "" {
			lines = append(lines, fmt.Sprintf("Days per week: %s", days))
		}
	}
	if value := commitment["minutesPerSession"]; value != nil {
		if minutes := renderScalar(value); minutes != "" {
			lines = append(lines, fmt.Sprintf("Minutes per session: %s", minutes))
		}
	}
	if timeOfDay, _ := commitment["preferredTimeOfDay"].(string); strings.TrimSpace(timeOfDay) != "" {
		lines = append(lines, fmt.Sprintf("Preferred time of day: %s", strings.TrimSpace(timeOfDay)))
	}
	return lines
}
