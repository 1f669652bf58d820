package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"iacgen/app/config"
	"iacgen/app/usecase"
	"iacgen/internal/infrastructure/knowledge"
	"iacgen/internal/infrastructure/llm"
	"iacgen/internal/infrastructure/metrics"
	"iacgen/internal/infrastructure/store/filesystem"
	mongorepo "iacgen/internal/infrastructure/store/mongodb"
	"iacgen/internal/infrastructure/transport"
	"iacgen/internal/infrastructure/validator"
)

func main() {
	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// load config
	cfg := loadConfig()

	// Connect to MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("mongo connect failed", "err", err)
		log.Fatalf("mongo connect: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		logger.Error("mongo ping failed", "err", err)
		log.Fatalf("mongo ping: %v", err)
	}
	logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
	db := mongoClient.Database(cfg.Mongo.Database)

	// Repositories
	jobRepo := mongorepo.NewMongoJobRepo(db)
	sessionRepo := mongorepo.NewMongoSessionRepo(db)
	artifactRepo, err := filesystem.NewArtifactRepository(cfg.Artifacts.Dir)
	if err != nil {
		log.Fatalf("init artifact repo: %v", err)
	}

	// Knowledge base and retriever
	records, skipped, err := knowledge.LoadRecords(cfg.Knowledge.DatasetPath)
	if err != nil {
		logger.Error("knowledge base load failed", "path", cfg.Knowledge.DatasetPath, "err", err)
		log.Fatalf("load knowledge base: %v", err)
	}
	if skipped > 0 {
		logger.Warn("skipped malformed knowledge base records", "count", skipped)
	}
	kb, err := knowledge.Build(records)
	if err != nil {
		log.Fatalf("build knowledge base: %v", err)
	}
	stats := kb.Stats()
	logger.Info("knowledge base ready",
		"snippets", stats.Snippets,
		"keywords", stats.Keywords,
		"resource_types", stats.ResourceTypes,
		"strategy", cfg.Knowledge.Strategy,
	)
	strategy, err := knowledge.NewStrategy(cfg.Knowledge.Strategy, kb)
	if err != nil {
		log.Fatalf("init retrieval strategy: %v", err)
	}
	retriever := knowledge.NewRetriever(kb, strategy)

	// LLM client
	generator := llm.NewChatGenerator(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.LLM.Timeout,
	)

	// Validator
	tfValidator := validator.NewTerraformValidator(cfg.Validator.BinPath, cfg.Validator.Timeout, logger)

	// Usecases / services
	jobSvc := usecase.NewJobService(jobRepo, sessionRepo)
	events := transport.NewEventHub()

	worker := usecase.NewGeneratorWorker(
		jobRepo,
		sessionRepo,
		artifactRepo,
		retriever,
		generator,
		tfValidator,
		events,
		usecase.SessionConfig{
			MaxRetries:           cfg.Session.MaxRetries,
			TopK:                 cfg.Knowledge.TopK,
			SnippetBudget:        cfg.Session.SnippetBudget,
			BestEffortAcceptance: cfg.Session.BestEffortAcceptance,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx) // фоновый воркер

	// Transport (HTTP handlers)
	handler := transport.NewGeneratorHandler(
		jobSvc,
		stats,
		events,
		logger,
	)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting metrics server on :2112")
		metrics.StartMetricsServer(":2112")
	}()

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	worker.Stop()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("disconnecting mongo")
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", "err", err)
	}

	logger.Info("service stopped")
}

func loadConfig() *config.Config {
	cfg := &config.Config{
		Server: config.HTTPServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		LLM: config.LLMConfig{
			APIKey:    getEnv("LLM_API_KEY", ""),
			BaseURL:   getEnv("LLM_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			Model:     getEnv("LLM_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 4000),
			Timeout:   time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Mongo: config.MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "iacgen"),
		},
		Knowledge: config.KnowledgeConfig{
			DatasetPath: getEnv("KB_DATASET_PATH", "./data/snippets.jsonl"),
			Strategy:    getEnv("KB_STRATEGY", knowledge.StrategyKeyword),
			TopK:        getEnvInt("KB_TOP_K", 3),
		},
		Session: config.SessionConfig{
			MaxRetries:           getEnvInt("SESSION_MAX_RETRIES", 2),
			SnippetBudget:        getEnvInt("SESSION_SNIPPET_BUDGET", 6000),
			BestEffortAcceptance: getEnv("SESSION_BEST_EFFORT", "") == "true",
		},
		Validator: config.ValidatorConfig{
			BinPath: getEnv("TERRAFORM_BIN", "terraform"),
			Timeout: time.Duration(getEnvInt("TERRAFORM_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Artifacts: config.ArtifactsConfig{
			Dir: getEnv("ARTIFACTS_DIR", "./artifacts"),
		},
	}

	if cfg.LLM.APIKey == "" {
		log.Fatal("LLM_API_KEY env variable is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
