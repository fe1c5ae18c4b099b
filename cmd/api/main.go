package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"regulaqa/internal/citations"
	"regulaqa/internal/config"
	"regulaqa/internal/corpus"
	"regulaqa/internal/handlers"
	"regulaqa/internal/http"
	"regulaqa/internal/indexer"
	"regulaqa/internal/llm"
	"regulaqa/internal/pdfx"
	"regulaqa/internal/rag"
	"regulaqa/internal/storage"
	"regulaqa/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize chat history database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	sessionRepo := storage.NewSessionRepo(db)
	messageRepo := storage.NewMessageRepo(db)

	// Initialize Qdrant-backed corpus
	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	manager := corpus.NewManager(store, cfg.QdrantCollection, cfg.QdrantVectorSize)
	slog.Info("Corpus manager initialized", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// External service clients
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Ingestion pipeline
	pipeline, err := indexer.NewPipeline(pdfx.NewPDFExtractor(), embedder, manager, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create ingestion pipeline: %v", err)
	}

	// RAG engine
	engine := rag.NewEngine(embedder, manager, llmClient, cfg.SearchK, float32(cfg.LLMTemperature))
	slog.Info("RAG engine initialized", "search_k", cfg.SearchK)

	deps := &http.Deps{
		Health:    handlers.NewHealthHandler(store, cfg.QdrantCollection, cfg.LLMModelName),
		Upload:    handlers.NewUploadHandler(pipeline, cfg.UploadDir),
		Documents: handlers.NewDocumentsHandler(manager, cfg.UploadDir),
		Chat:      handlers.NewChatHandler(engine, citations.NewRenderer(), manager, sessionRepo, messageRepo),
		Model:     handlers.NewModelHandler(cfg.LLMModelName, cfg.EmbeddingModelName, cfg.LLMTemperature),
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
