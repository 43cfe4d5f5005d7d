package gateway

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

const (
	DefaultEmbeddingModel = "text-embedding-004"
	embeddingBatchSize    = 100
)

// Embedder turns text into vectors for similarity search
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder wraps client with the given embedding model
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model}
}

// EmbedDocuments embeds passages that will be stored
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, genai.TaskTypeRetrievalDocument)
}

// EmbedQuery embeds a search query
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, genai.TaskTypeRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, task genai.TaskType) ([][]float32, error) {
	if e.client == nil {
		return nil, ErrNoCredentials
	}
	if len(texts) == 0 {
		return nil, nil
	}

	em := e.client.EmbeddingModel(e.model)
	em.TaskType = task

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := em.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(res.Embeddings))
		}
		for _, emb := range res.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}
