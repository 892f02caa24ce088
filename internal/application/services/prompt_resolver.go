package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
)

// PromptKind selects between the two prompt families.
type PromptKind string

const (
	// PromptGeneration produces an initial assessment; placeholder: survey.
	PromptGeneration PromptKind = "generation"

	// PromptRevision revises a prior assessment; placeholders: assessment,
	// feedback, survey.
	PromptRevision PromptKind = "revision"
)

const promptCacheTTL = 5 * time.Minute

// guardrailSuffix is appended to every resolved template, registry-sourced or
// not. The registry cannot override it: a stale or compromised remote
// template still cannot invite the model to invent symptoms or prescribe an
// external fitness test.
const guardrailSuffix = `

Rules that always apply:
- Only reference symptoms, conditions, and limitations explicitly present in the survey answers. Never invent or infer ones that are not stated.
- Never instruct the user to perform a fitness test or physical self-assessment outside this program.`

const defaultGenerationTemplate = `You are a certified fitness coach writing a personalized onboarding assessment.
Using only the survey answers below, write a warm, specific assessment of this person's starting point, their stated goal, and what realistic progress looks like for them. Write plain prose, 2-4 short paragraphs, addressed directly to the user.

Survey answers:
{{survey}}`

const defaultRevisionTemplate = `You are a certified fitness coach revising a personalized onboarding assessment based on user feedback.
Rewrite the assessment below so it addresses the feedback while staying grounded in the survey answers. Keep the same warm, direct tone.

Current assessment:
{{assessment}}

User feedback:
{{feedback}}

Survey answers:
{{survey}}`

// PromptResolver resolves versioned prompt templates from the remote
// registry, with an embedded default per family. Registry failures are
// logged and absorbed; resolution itself cannot fail.
type PromptResolver struct {
	registry           providers.PromptProvider
	cache              providers.CacheProvider
	generationPromptID string
	revisionPromptID   string
}

// NewPromptResolver creates a prompt resolver. registry and cache may both
// be nil; resolution then always yields the embedded defaults.
func NewPromptResolver(registry providers.PromptProvider, cache providers.CacheProvider, generationPromptID, revisionPromptID string) *PromptResolver {
	return &PromptResolver{
		registry:           registry,
		cache:              cache,
		generationPromptID: generationPromptID,
		revisionPromptID:   revisionPromptID,
	}
}

// Resolve returns the template for the given prompt family with the
// guardrail suffix appended, plus a provenance flag for observability.
func (r *PromptResolver) Resolve(ctx context.Context, kind PromptKind) entities.ResolvedPrompt {
	promptID := r.generationPromptID
	fallback := defaultGenerationTemplate
	if kind == PromptRevision {
		promptID = r.revisionPromptID
		fallback = defaultRevisionTemplate
	}

	template, fromRegistry := r.fetch(ctx, promptID)
	if !fromRegistry {
		template = fallback
	}

	return entities.ResolvedPrompt{
		Template:     template + guardrailSuffix,
		FromRegistry: fromRegistry,
	}
}

// PromptID returns the logical registry id for the given family.
func (r *PromptResolver) PromptID(kind PromptKind) string {
	if kind == PromptRevision {
		return r.revisionPromptID
	}
	return r.generationPromptID
}

func (r *PromptResolver) fetch(ctx context.Context, promptID string) (string, bool) {
	if r.registry == nil || promptID == "" {
		return "", false
	}

	cacheKey := "prompt:" + promptID
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached), true
		}
	}

	template, err := r.registry.GetPrompt(ctx, promptID)
	if err != nil {
		log.Warn().Err(err).Str("prompt_id", promptID).Msg("prompt registry fetch failed, using embedded default")
		return "", false
	}
	if strings.TrimSpace(template) == "" {
		log.Warn().Str("prompt_id", promptID).Msg("prompt registry returned empty template, using embedded default")
		return "", false
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, []byte(template), promptCacheTTL); err != nil {
			log.Debug().Err(err).Str("prompt_id", promptID).Msg("failed to cache prompt template")
		}
	}

	return template, true
}

// BindPrompt substitutes the named placeholders in a resolved template.
// Unknown placeholders are left untouched.
func BindPrompt(template string, vars map[string]string) string {
	replacements := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		replacements = append(replacements, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(replacements...).Replace(template)
}
