package repository

import (
	"context"
	"fmt"
	"strings"

	"pecajuridica-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimensions = 768

// Embedder produces vectors for stored passages and queries
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MemoryRepository stores memory passages as embedded chunks in Postgres
type MemoryRepository struct {
	db       *pgxpool.Pool
	embedder Embedder
}

// NewMemoryRepository creates a new pgvector-backed memory repository
func NewMemoryRepository(db *pgxpool.Pool, embedder Embedder) *MemoryRepository {
	return &MemoryRepository{db: db, embedder: embedder}
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Write chunks, embeds and inserts every item
func (r *MemoryRepository) Write(ctx context.Context, items []models.MemoryItem) error {
	for _, item := range items {
		chunks := SplitText(item.Text, chunkSize, chunkOverlap)
		if len(chunks) == 0 {
			continue
		}

		vectors, err := r.embedder.EmbedDocuments(ctx, chunks)
		if err != nil {
			return fmt.Errorf("failed to embed memory item: %w", err)
		}

		memoryID := uuid.New()
		batch := &pgx.Batch{}
		for i, chunk := range chunks {
			batch.Queue(`
				INSERT INTO memory_chunks (
					memory_id, chunk_index, chunk_text, memory_type,
					client_id, process_id, metadata, embedding
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)`,
				memoryID, i, chunk, item.Type,
				nullIfEmpty(item.ClientID), nullIfEmpty(item.ProcessID),
				item.Metadata, formatVector(vectors[i]),
			)
		}

		br := r.db.SendBatch(ctx, batch)
		for range chunks {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert memory chunk: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert memory chunks: %w", err)
		}
	}
	return nil
}

// Query returns the chunks closest to text, narrowed by type and owner
func (r *MemoryRepository) Query(ctx context.Context, text string, q models.MemoryQuery) ([]models.MemoryRecord, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedding) != embeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDimensions, len(embedding))
	}

	topK := q.TopK
	if topK <= 0 {
		topK = 5
	}

	args := []interface{}{formatVector(embedding)}
	var filters []string
	if q.Type != "" {
		args = append(args, q.Type)
		filters = append(filters, fmt.Sprintf("memory_type = $%d", len(args)))
	}
	if q.ClientID != "" {
		args = append(args, q.ClientID)
		filters = append(filters, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if q.ProcessID != "" {
		args = append(args, q.ProcessID)
		filters = append(filters, fmt.Sprintf("process_id = $%d", len(args)))
	}
	args = append(args, topK)

	where := ""
	if len(filters) > 0 {
		where = "WHERE " + strings.Join(filters, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT
			id, chunk_text, memory_type, client_id, process_id,
			chunk_index, metadata, created_at,
			embedding <=> $1::vector AS distance
		FROM memory_chunks
		%s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, true)
}

// List returns the newest chunks owned by a client or a process
func (r *MemoryRepository) List(ctx context.Context, f models.MemoryFilter) ([]models.MemoryRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		column string
		value  string
	)
	switch {
	case f.ClientID != "":
		column, value = "client_id", f.ClientID
	case f.ProcessID != "":
		column, value = "process_id", f.ProcessID
	default:
		return nil, fmt.Errorf("client or process id is required")
	}

	query := fmt.Sprintf(`
		SELECT
			id, chunk_text, memory_type, client_id, process_id,
			chunk_index, metadata, created_at
		FROM memory_chunks
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2`, column)

	rows, err := r.db.Query(ctx, query, value, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, false)
}

func scanRecords(rows pgx.Rows, withDistance bool) ([]models.MemoryRecord, error) {
	var records []models.MemoryRecord
	for rows.Next() {
		var (
			rec       models.MemoryRecord
			clientID  *string
			processID *string
		)
		dest := []interface{}{
			&rec.ID, &rec.Text, &rec.Type, &clientID, &processID,
			&rec.ChunkIndex, &rec.Metadata, &rec.CreatedAt,
		}
		if withDistance {
			dest = append(dest, &rec.Distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan memory chunk: %w", err)
		}
		if clientID != nil {
			rec.ClientID = *clientID
		}
		if processID != nil {
			rec.ProcessID = *processID
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory chunks: %w", err)
	}
	return records, nil
}
