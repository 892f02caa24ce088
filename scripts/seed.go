package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/strideloop/fitadvisor-backend/internal/adapters/search"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/openai"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/postgres"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/typesense"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				assessments,
				survey_responses
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed survey responses for demo users
	surveys := []struct {
		userID   string
		response map[string]interface{}
	}{
		{
			userID: "demo-user-1",
			response: map[string]interface{}{
				"primaryGoal":       "lose weight",
				"activityFrequency": "1-2 times per week",
				"currentPain":       map[string]interface{}{"hasPain": false},
				"preferences":       []string{"walking", "swimming"},
				"equipment":         []string{"none"},
				"timeCommitment":    map[string]interface{}{"daysPerWeek": 3, "minutesPerSession": 30, "preferredTimeOfDay": "morning"},
				"confidence":        6,
				"importance":        9,
			},
		},
		{
			userID: "demo-user-2",
			response: map[string]interface{}{
				"primaryGoal":       "build strength",
				"activityFrequency": "3-4 times per week",
				"currentPain":       map[string]interface{}{"hasPain": true, "description": "lower back", "severity": 4},
				"preferences":       []string{"weightlifting"},
				"equipment":         []string{"dumbbells", "bench"},
				"timeCommitment":    map[string]interface{}{"daysPerWeek": 4, "minutesPerSession": 45},
			},
		},
	}

	for _, s := range surveys {
		payload, err := json.Marshal(s.response)
		if err != nil {
			log.Fatalf("Failed to marshal survey for %s: %v", s.userID, err)
		}

		_, err = pgClient.DB().ExecContext(ctx,
			`INSERT INTO survey_responses (id, user_id, response, created_at) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), s.userID, payload, time.Now().UTC(),
		)
		if err != nil {
			log.Printf("Failed to seed survey response for %s: %v", s.userID, err)
		} else {
			log.Printf("Seeded survey response for %s", s.userID)
		}
	}

	// 2. Seed knowledge chunks into the vector store
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Typesense unavailable, skipping knowledge chunk seeding: %v", err)
		return
	}

	embedder := openai.NewEmbeddingClient(&cfg.Embeddings)
	if embedder == nil {
		log.Println("No embedding credential, skipping knowledge chunk seeding")
		return
	}

	adapter := search.NewKnowledgeAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to init knowledge schema: %v", err)
	}

	chunks := []*entities.KnowledgeChunk{
		{ChunkID: "progressive-overload", Name: "Progressive overload", Content: "Increase training load gradually, about 5-10% per week, so the body adapts without injury risk."},
		{ChunkID: "beginner-frequency", Name: "Beginner frequency", Content: "For people new to exercise, two to three sessions per week is enough to drive measurable improvement in the first eight weeks."},
		{ChunkID: "pain-modification", Name: "Working around pain", Content: "When a client reports localized pain, substitute movements that load the same muscle groups without stressing the painful region."},
		{ChunkID: "habit-anchoring", Name: "Habit anchoring", Content: "Attaching workouts to an existing daily routine, like right after the morning coffee, roughly doubles adherence in the first month."},
		{ChunkID: "sleep-recovery", Name: "Sleep and recovery", Content: "Under six hours of sleep measurably reduces training adaptation; prioritize sleep hygiene before adding training volume."},
	}

	for _, chunk := range chunks {
		embedding, err := embedder.Embed(ctx, chunk.Name+": "+chunk.Content)
		if err != nil {
			log.Printf("Failed to embed chunk %s: %v", chunk.ChunkID, err)
			continue
		}
		if err := adapter.IndexChunk(ctx, chunk, embedding); err != nil {
			log.Printf("Failed to index chunk %s: %v", chunk.ChunkID, err)
			continue
		}
		log.Printf("Indexed knowledge chunk %s", chunk.ChunkID)
	}

	log.Println("Seeding complete")
}
