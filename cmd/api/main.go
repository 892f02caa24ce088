package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/strideloop/fitadvisor-backend/internal/adapters/cache"
	"github.com/strideloop/fitadvisor-backend/internal/adapters/database"
	"github.com/strideloop/fitadvisor-backend/internal/adapters/events"
	"github.com/strideloop/fitadvisor-backend/internal/adapters/search"
	"github.com/strideloop/fitadvisor-backend/internal/api/handlers"
	"github.com/strideloop/fitadvisor-backend/internal/api/routes"
	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/openai"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/postgres"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/prompthub"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/redis"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/typesense"
	"github.com/strideloop/fitadvisor-backend/internal/infrastructure/observability"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
	"github.com/strideloop/fitadvisor-backend/pkg/secrets"
)

func main() {

	// Hydrate secrets from Vault before reading configuration
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg); err != nil {
		log.Printf("Warning: Vault secret load failed: %v", err)
	} else if result.Enabled {
		log.Printf("Loaded %d secrets from Vault path %s", result.Loaded, result.Path)
	}

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("fitadvisor-api", cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	// The model credential is required; the service cannot degrade its way
	// out of having no model at all.
	modelClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	// Initialize adapters

	surveyRepo := database.NewSurveyResponseAdapter(pgClient, metrics)
	assessmentRepo := database.NewAssessmentAdapter(pgClient, metrics)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	var knowledgeRepo repositories.KnowledgeSearchRepository
	if typesenseClient != nil {
		adapter := search.NewKnowledgeAdapter(typesenseClient)

		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}

		knowledgeRepo = adapter
	}

	// Without an embedding credential there is no retrieval; assessments are
	// still generated from the survey alone.
	embedder := openai.NewEmbeddingClient(&cfg.Embeddings)
	var embeddingProvider providers.EmbeddingProvider
	if embedder != nil {
		embeddingProvider = embedder
	} else {
		log.Println("Warning: embedding credential is not set; context retrieval disabled")
	}

	var promptRegistry providers.PromptProvider
	registryClient, err := prompthub.NewClient(&cfg.PromptHub, cfg.Server.Env)
	if err != nil {
		log.Printf("Warning: prompt registry unavailable, using built-in templates: %v", err)
	} else if registryClient != nil {
		promptRegistry = registryClient
		log.Println("Prompt registry client initialized successfully")
	}

	// Initialize services

	retriever := services.NewContextRetrievalService(embeddingProvider, knowledgeRepo)
	promptResolver := services.NewPromptResolver(
		promptRegistry,
		cacheProvider,
		cfg.PromptHub.GenerationPromptID,
		cfg.PromptHub.RevisionPromptID,
	)

	assessmentService, err := services.NewAssessmentService(
		surveyRepo,
		assessmentRepo,
		modelClient,
		retriever,
		promptResolver,
		promptRegistry,
		eventBus,
		metrics,
		cfg.Server.Env,
		cfg.OpenAI.Temperature,
	)
	if err != nil {
		log.Fatalf("Failed to initialize assessment service: %v", err)
	}

	// Initialize handlers

	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)

	// Set up router

	router := routes.NewRouter(assessmentHandler, metrics)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
