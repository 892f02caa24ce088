package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/internal/evaluation"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/openai"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
)

// fallbackGenerator runs the templated degradation path. It needs no
// credentials, so the harness works offline.
type fallbackGenerator struct{}

func (fallbackGenerator) Generate(_ context.Context, survey map[string]interface{}) (string, error) {
	return services.FallbackGenerate(survey), nil
}

// modelGenerator runs the live generation prompt against the configured model.
type modelGenerator struct {
	client  *openai.Client
	prompts *services.PromptResolver
}

func (g *modelGenerator) Generate(ctx context.Context, survey map[string]interface{}) (string, error) {
	prompt := g.prompts.Resolve(ctx, services.PromptGeneration)
	user := services.BindPrompt(prompt.Template, map[string]string{
		"survey": services.NormalizeSurvey(survey),
	})

	return g.client.Generate(ctx, providers.ModelRequest{
		System: "You are the assessment writer for a personal fitness coaching product.",
		User:   user,
	})
}

func main() {
	goldenPath := flag.String("golden", "config/golden_surveys.json", "path to golden survey set")
	live := flag.Bool("live", false, "evaluate against the live model instead of the fallback path")
	flag.Parse()

	cases, err := evaluation.LoadGoldenSurveys(*goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden surveys: %v", err)
	}
	if err := evaluation.ValidateGoldenSurveys(cases); err != nil {
		log.Fatalf("Invalid golden surveys: %v", err)
	}

	var generator evaluation.AssessmentGenerator = fallbackGenerator{}
	if *live {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI client: %v", err)
		}

		prompts := services.NewPromptResolver(nil, nil, cfg.PromptHub.GenerationPromptID, cfg.PromptHub.RevisionPromptID)
		generator = &modelGenerator{client: client, prompts: prompts}
	}

	runner := evaluation.NewRunner(generator, evaluation.NewGuardrails(evaluation.GuardrailConfig{}))
	summary, err := runner.Run(context.Background(), cases)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
