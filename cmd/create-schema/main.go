package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"pecajuridica-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const piecesSQL = `
CREATE TABLE IF NOT EXISTS pieces (
    id TEXT PRIMARY KEY,
    document_type VARCHAR(50) NOT NULL,

    -- Annotated text and the citations verified for it
    text TEXT NOT NULL,
    citations JSONB NOT NULL DEFAULT '[]'::jsonb,

    -- Ownership
    client_name TEXT NOT NULL,
    client_id TEXT,
    process_id TEXT,
    parties JSONB NOT NULL DEFAULT '[]'::jsonb,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const memoryChunksSQL = `
CREATE TABLE IF NOT EXISTS memory_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Chunks of one memory item share memory_id
    memory_id UUID NOT NULL,
    chunk_index INTEGER NOT NULL,
    chunk_text TEXT NOT NULL,

    memory_type VARCHAR(20) NOT NULL CHECK (memory_type IN ('piece', 'topic', 'case_law', 'doctrine', 'article', 'thesis', 'insight')),
    client_id TEXT,
    process_id TEXT,
    metadata JSONB DEFAULT '{}'::jsonb,

    embedding vector(768),

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT memory_chunk_order_unique UNIQUE (memory_id, chunk_index)
);`

func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	if os.Getenv("RESET_SCHEMA") == "true" {
		for _, table := range []string{"memory_chunks", "pieces"} {
			if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
				log.Fatalf("Failed to drop table %s: %v", table, err)
			}
			log.Printf("✓ Dropped existing %s table (if any)", table)
		}
	}

	tables := []struct {
		name string
		sql  string
	}{
		{"pieces", piecesSQL},
		{"memory_chunks", memoryChunksSQL},
	}
	for _, t := range tables {
		if _, err := pool.Exec(ctx, t.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", t.name, err)
		}
		log.Printf("✓ Created %s table", t.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Pieces by client",
			sql:  "CREATE INDEX IF NOT EXISTS idx_pieces_client_id ON pieces(client_id) WHERE client_id IS NOT NULL;",
		},
		{
			name: "Pieces by process",
			sql:  "CREATE INDEX IF NOT EXISTS idx_pieces_process_id ON pieces(process_id) WHERE process_id IS NOT NULL;",
		},
		{
			name: "Vector similarity search (HNSW)",
			sql: `CREATE INDEX IF NOT EXISTS idx_memory_embedding_hnsw ON memory_chunks
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
		},
		{
			name: "Type-based filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_memory_type ON memory_chunks(memory_type);",
		},
		{
			name: "Client listing",
			sql:  "CREATE INDEX IF NOT EXISTS idx_memory_client ON memory_chunks(client_id, created_at DESC) WHERE client_id IS NOT NULL;",
		},
		{
			name: "Process listing",
			sql:  "CREATE INDEX IF NOT EXISTS idx_memory_process ON memory_chunks(process_id, created_at DESC) WHERE process_id IS NOT NULL;",
		},
		{
			name: "Metadata JSONB filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_memory_metadata_gin ON memory_chunks USING gin (metadata);",
		},
	}

	for _, idx := range indexes {
		_, err = pool.Exec(ctx, idx.sql)
		if err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Tables: pieces, memory_chunks")
	fmt.Printf("   Indexes: %d indexes created\n", len(indexes))
}
