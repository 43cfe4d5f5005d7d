package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pecajuridica-backend/config"
	"pecajuridica-backend/docx"
	"pecajuridica-backend/gateway"
	"pecajuridica-backend/handlers"
	"pecajuridica-backend/repository"
	"pecajuridica-backend/service"
	"pecajuridica-backend/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	cfg := config.Load()

	// Postgres is only needed for the durable piece store and vector memory
	var db *pgxpool.Pool
	if cfg.PieceStore == "postgres" || cfg.MemoryBackend == "pgvector" {
		pool, err := initPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer pool.Close()
		db = pool
	}

	geminiClient, err := initGemini(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	if geminiClient != nil {
		defer geminiClient.Close()
	}

	// Initialize storage
	exportStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	pieceStore, closeStore := initPieceStore(cfg, db)
	defer closeStore()

	pieceOpts := []service.PieceServiceOption{
		service.PieceWithStore(pieceStore),
		service.PieceWithGenerator(gateway.NewGemini(geminiClient, cfg.GeminiModel)),
		service.PieceWithResearcher(gateway.NewTavily(cfg.TavilyAPIKey, cfg.TavilyURL)),
	}
	if memory := initMemory(cfg, db, geminiClient); memory != nil {
		pieceOpts = append(pieceOpts, service.PieceWithMemory(memory))
	}

	// Initialize services
	pieceService := service.NewPieceService(pieceOpts...)
	exportService := service.NewExportService(
		service.ExportWithStore(pieceStore),
		service.ExportWithBuilder(docx.NewBuilder()),
		service.ExportWithStorage(exportStorage),
	)

	// Initialize handlers
	router := handlers.NewRouter(
		handlers.NewPieceHandler(pieceService),
		handlers.NewMemoryHandler(pieceService),
		handlers.NewExportHandler(exportService),
	)

	// Generation chains several model calls, so writes get a long budget
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("Waiting for pending memory writes")
	pieceService.Wait()
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	ctx := context.Background()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

// initGemini returns a nil client without a key; generation then fails
// with gateway.ErrNoCredentials
func initGemini(apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}

func initPieceStore(cfg config.Config, db *pgxpool.Pool) (repository.PieceStore, func()) {
	switch cfg.PieceStore {
	case "postgres":
		log.Println("Using PostgreSQL piece store")
		return repository.NewPieceRepository(db), func() {}
	case "redis":
		store, err := repository.NewRedisPieceStore(cfg.RedisURL, cfg.PieceTTL)
		if err != nil {
			log.Fatalf("Failed to initialize Redis piece store: %v", err)
		}
		log.Printf("Using Redis piece store (ttl %s)", cfg.PieceTTL)
		return store, func() { store.Close() }
	default:
		log.Println("Using in-memory piece store")
		return repository.NewMemoryPieceStore(), func() {}
	}
}

func initMemory(cfg config.Config, db *pgxpool.Pool, client *genai.Client) service.MemoryStore {
	switch cfg.MemoryBackend {
	case "pgvector":
		if client == nil {
			log.Println("Warning: pgvector memory needs embeddings; memory disabled without GEMINI_API_KEY")
			return nil
		}
		log.Println("Using pgvector memory")
		return repository.NewMemoryRepository(db, gateway.NewEmbedder(client, cfg.EmbeddingModel))
	case "meilisearch":
		log.Printf("Using Meilisearch memory at %s", cfg.MeiliURL)
		return repository.NewMeiliMemory(cfg.MeiliURL, cfg.MeiliAPIKey)
	default:
		log.Println("Memory disabled")
		return nil
	}
}
