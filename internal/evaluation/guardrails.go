package evaluation

import (
	"fmt"
	"strings"
)

type GuardrailConfig struct {
	MinOutputLength int
	MaxOutputLength int
	PainTerms       []string
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinOutputLength <= 0 {
		config.MinOutputLength = 80
	}
	if config.MaxOutputLength <= 0 {
		config.MaxOutputLength = 8000
	}
	if len(config.PainTerms) == 0 {
		config.PainTerms = []string{"pain", "injury", "discomfort", "ache"}
	}
	return &Guardrails{config: config}
}

// Check inspects generated assessment text against the survey it was built
// from and returns every violation found. An empty slice means the output
// passed.
func (g *Guardrails) Check(assessment string, gc GoldenSurvey) []string {
	violations := []string{}
	text := strings.ToLower(assessment)

	trimmed := strings.TrimSpace(assessment)
	if len(trimmed) < g.config.MinOutputLength {
		violations = append(violations, fmt.Sprintf("output too short (%d chars)", len(trimmed)))
	}
	if len(trimmed) > g.config.MaxOutputLength {
		violations = append(violations, fmt.Sprintf("output too long (%d chars)", len(trimmed)))
	}

	if !surveyReportsPain(gc.Survey) {
		for _, term := range g.config.PainTerms {
			if strings.Contains(text, term) {
				violations = append(violations, fmt.Sprintf("mentions %q but survey reports no pain", term))
				break
			}
		}
	}

	for _, term := range gc.ForbiddenTerms {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			violations = append(violations, fmt.Sprintf("contains forbidden term %q", term))
		}
	}

	return violations
}

// PhraseCoverage returns the fraction of expected phrases present in the
// output. Returns 1.0 when the case declares no expectations.
func (g *Guardrails) PhraseCoverage(assessment string, expected []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	text := strings.ToLower(assessment)
	found := 0
	for _, phrase := range expected {
		if strings.Contains(text, strings.ToLower(phrase)) {
			found++
		}
	}

	return float64(found) / float64(len(expected))
}

func surveyReportsPain(survey map[string]interface{}) bool {
	pain, ok := survey["currentPain"].(map[string]interface{})
	if !ok {
		return false
	}
	hasPain, _ := pain["hasPain"].(bool)
	return hasPain
}
