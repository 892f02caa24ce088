package evaluation

import (
	"context"
	"time"
)

// AssessmentGenerator produces assessment text from a raw survey response.
type AssessmentGenerator interface {
	Generate(ctx context.Context, survey map[string]interface{}) (string, error)
}

// Runner runs evaluation across a set of golden surveys.
type Runner struct {
	generator  AssessmentGenerator
	guardrails *Guardrails
}

func NewRunner(gen AssessmentGenerator, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{generator: gen, guardrails: guardrails}
}

func (r *Runner) Run(ctx context.Context, cases []GoldenSurvey) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalCases:   len(cases),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
	}

	for _, gc := range cases {
		start := time.Now()
		output, err := r.generator.Generate(ctx, gc.Survey)
		duration := time.Since(start)

		if err != nil {
			summary.FailedCases++
			continue
		}
		summary.CompletedCases++

		violations := r.guardrails.Check(output, gc)

		result := EvalResult{
			CaseID:          gc.ID,
			Difficulty:      gc.Difficulty,
			PhraseCoverage:  r.guardrails.PhraseCoverage(output, gc.ExpectedPhrases),
			GuardrailPassed: len(violations) == 0,
			Violations:      violations,
			OutputLength:    len(output),
			Latency:         duration,
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgPhraseCoverage += res.PhraseCoverage
	s.AvgOutputLength += float64(res.OutputLength)
	s.AvgLatency += res.Latency
	if res.GuardrailPassed {
		s.GuardrailPassRate++
	}

	if _, ok := s.ByDifficulty[res.Difficulty]; !ok {
		s.ByDifficulty[res.Difficulty] = &DifficultySummary{}
	}
	ds := s.ByDifficulty[res.Difficulty]
	ds.Count++
	ds.AvgPhraseCoverage += res.PhraseCoverage
	if res.GuardrailPassed {
		ds.GuardrailPassRate++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.CompletedCases > 0 {
		n := float64(s.CompletedCases)
		s.AvgPhraseCoverage /= n
		s.GuardrailPassRate /= n
		s.AvgOutputLength /= n
		s.AvgLatency /= time.Duration(s.CompletedCases)
	}

	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.AvgPhraseCoverage /= n
			ds.GuardrailPassRate /= n
		}
	}
}
