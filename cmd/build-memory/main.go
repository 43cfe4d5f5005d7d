package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pecajuridica-backend/config"
	"pecajuridica-backend/gateway"
	"pecajuridica-backend/models"
	"pecajuridica-backend/repository"
	"pecajuridica-backend/service"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

const defaultSourceDir = "./memoria_ref"

func main() {
	cfg := config.Load()

	sourceDir := os.Getenv("MEMORY_SOURCE_DIR")
	if sourceDir == "" {
		sourceDir = defaultSourceDir
	}

	ctx := context.Background()

	var (
		memory service.MemoryStore
		pool   *pgxpool.Pool
	)
	switch cfg.MemoryBackend {
	case "pgvector":
		if cfg.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required for pgvector memory")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Fatalf("Failed to initialize Gemini: %v", err)
		}
		defer client.Close()

		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		// Verify table exists
		var tableExists bool
		err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'memory_chunks')").Scan(&tableExists)
		if err != nil {
			log.Fatalf("Failed to check table existence: %v", err)
		}
		if !tableExists {
			log.Fatal("memory_chunks table does not exist. Please run: go run cmd/create-schema/main.go")
		}
		memory = repository.NewMemoryRepository(pool, gateway.NewEmbedder(client, cfg.EmbeddingModel))
	case "meilisearch":
		meili := repository.NewMeiliMemory(cfg.MeiliURL, cfg.MeiliAPIKey)
		if !meili.Healthy() {
			log.Fatalf("Meilisearch is not reachable at %s", cfg.MeiliURL)
		}
		memory = meili
	default:
		log.Fatalf("MEMORY_BACKEND=%q has nothing to build; set it to pgvector or meilisearch", cfg.MemoryBackend)
	}

	files, err := os.ReadDir(sourceDir)
	if err != nil {
		log.Fatalf("Failed to read directory: %v", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".txt") {
			continue
		}

		filename := file.Name()
		log.Printf("\n📄 Processing: %s", filename)

		content, err := os.ReadFile(filepath.Join(sourceDir, filename))
		if err != nil {
			log.Printf("❌ Error reading %s: %v", filename, err)
			continue
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			log.Printf("   ⏭️  Skipping empty file")
			continue
		}

		memoryType := determineMemoryType(filename, text)
		log.Printf("   Type: %s", memoryType)

		if pool != nil {
			var count int
			err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM memory_chunks WHERE metadata->>'sourceDocument' = $1", filename).Scan(&count)
			if err != nil {
				log.Printf("   ⚠️  Error checking existing chunks: %v", err)
			} else if count > 0 {
				log.Printf("   ⏭️  Skipping (already processed: %d chunks)", count)
				continue
			}
		}

		item := models.MemoryItem{
			Text: text,
			Type: memoryType,
			Metadata: map[string]interface{}{
				"sourceDocument": filename,
				"origin":         "reference",
			},
		}
		if err := memory.Write(ctx, []models.MemoryItem{item}); err != nil {
			log.Printf("   ❌ Error storing %s: %v", filename, err)
			continue
		}
		log.Printf("   ✅ Successfully processed %s", filename)

		// Rate limiting
		time.Sleep(2 * time.Second)
	}

	log.Println("\n✅ Memory build complete!")
}

// determineMemoryType classifies a reference file by its name, then by its content
func determineMemoryType(filename, content string) models.MemoryType {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "jurisprud") || strings.Contains(name, "acordao") || strings.Contains(name, "sumula"):
		return models.MemoryTypeCaseLaw
	case strings.Contains(name, "doutrina"):
		return models.MemoryTypeDoctrine
	case strings.Contains(name, "tese"):
		return models.MemoryTypeThesis
	case strings.Contains(name, "lei") || strings.Contains(name, "codigo") || strings.Contains(name, "constituicao"):
		return models.MemoryTypeArticle
	case strings.Contains(name, "peca") || strings.Contains(name, "modelo"):
		return models.MemoryTypePiece
	}

	head := strings.ToLower(content)
	if len(head) > 2000 {
		head = head[:2000]
	}
	switch {
	case strings.Contains(head, "ementa") || strings.Contains(head, "acórdão") || strings.Contains(head, "relator"):
		return models.MemoryTypeCaseLaw
	case strings.Contains(head, "art. 1"):
		return models.MemoryTypeArticle
	}
	return models.MemoryTypeInsight
}
