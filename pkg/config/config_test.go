package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "fitadvisor", cfg.Database.Database)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, "assessment-generation", cfg.PromptHub.GenerationPromptID)
	assert.Equal(t, "assessment-revision", cfg.PromptHub.RevisionPromptID)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPENAI_TEMPERATURE", "0.9")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("PROMPTHUB_URL", "https://prompts.internal.example")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.9, cfg.OpenAI.Temperature, 0.001)
	assert.True(t, cfg.OTEL.Enabled)
	assert.Equal(t, "https://prompts.internal.example", cfg.PromptHub.BaseURL)
}

func TestLoad_EmbeddingsKeyFallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("EMBEDDINGS_API_KEY", "")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "sk-shared", cfg.Embeddings.APIKey)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		Database: "fitadvisor",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db.internal port=5433 user=svc password=pw dbname=fitadvisor sslmode=require", cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}

func TestGetEnvAsInt_IgnoresMalformed(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
