package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"pecajuridica-backend/models"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
)

const memoryIndex = "pecajuridica_memory"

// MeiliMemory stores memory passages in a Meilisearch index and answers
// queries with keyword relevance instead of embeddings
type MeiliMemory struct {
	client  meili.ServiceManager
	healthy atomic.Bool
}

type memoryDocument struct {
	ID         string                 `json:"id"`
	Text       string                 `json:"text"`
	Type       models.MemoryType      `json:"type"`
	ClientID   string                 `json:"clientId,omitempty"`
	ProcessID  string                 `json:"processId,omitempty"`
	ChunkIndex int                    `json:"chunkIndex"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  int64                  `json:"createdAt"`
}

// NewMeiliMemory creates a Meilisearch client and configures the memory index
func NewMeiliMemory(url, apiKey string) *MeiliMemory {
	m := &MeiliMemory{client: meili.New(url, meili.WithAPIKey(apiKey))}

	if _, err := m.client.Health(); err != nil {
		log.Printf("memory: meilisearch unavailable at %s: %v", url, err)
		return m
	}
	m.healthy.Store(true)
	m.configureIndex()
	return m
}

func (m *MeiliMemory) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        memoryIndex,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("memory: create index %s (may already exist): %v", memoryIndex, err)
	}

	index := m.client.Index(memoryIndex)
	filterable := []interface{}{"type", "clientId", "processId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("memory: update filterable attrs: %v", err)
	}
	sortable := []string{"createdAt"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("memory: update sortable attrs: %v", err)
	}
}

// Healthy reports whether Meilisearch answered the last health check
func (m *MeiliMemory) Healthy() bool {
	return m.healthy.Load()
}

func (m *MeiliMemory) ensureHealthy() error {
	if m.healthy.Load() {
		return nil
	}
	if _, err := m.client.Health(); err != nil {
		return fmt.Errorf("meilisearch unhealthy: %w", err)
	}
	m.healthy.Store(true)
	m.configureIndex()
	return nil
}

// Write indexes every item as its own chunked documents
func (m *MeiliMemory) Write(_ context.Context, items []models.MemoryItem) error {
	if err := m.ensureHealthy(); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	var docs []memoryDocument
	for _, item := range items {
		memoryID := uuid.NewString()
		for i, chunk := range SplitText(item.Text, chunkSize, chunkOverlap) {
			docs = append(docs, memoryDocument{
				ID:         fmt.Sprintf("%s-%d", memoryID, i),
				Text:       chunk,
				Type:       item.Type,
				ClientID:   item.ClientID,
				ProcessID:  item.ProcessID,
				ChunkIndex: i,
				Metadata:   item.Metadata,
				CreatedAt:  now,
			})
		}
	}
	if len(docs) == 0 {
		return nil
	}

	if _, err := m.client.Index(memoryIndex).AddDocuments(docs, nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("meilisearch add documents: %w", err)
	}
	return nil
}

// Query searches indexed passages related to text
func (m *MeiliMemory) Query(_ context.Context, text string, q models.MemoryQuery) ([]models.MemoryRecord, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 5
	}
	return m.search(text, &meili.SearchRequest{
		Limit:  int64(topK),
		Filter: memoryFilters(q.Type, q.ClientID, q.ProcessID),
	})
}

// List returns the newest passages owned by a client or a process
func (m *MeiliMemory) List(_ context.Context, f models.MemoryFilter) ([]models.MemoryRecord, error) {
	if f.ClientID == "" && f.ProcessID == "" {
		return nil, fmt.Errorf("client or process id is required")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := m.search("", &meili.SearchRequest{
		Limit:  int64(limit),
		Filter: memoryFilters("", f.ClientID, f.ProcessID),
		Sort:   []string{"createdAt:desc"},
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (m *MeiliMemory) search(text string, req *meili.SearchRequest) ([]models.MemoryRecord, error) {
	if err := m.ensureHealthy(); err != nil {
		return nil, err
	}

	resp, err := m.client.Index(memoryIndex).Search(text, req)
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	records := make([]models.MemoryRecord, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc, err := decodeMemoryHit(hit)
		if err != nil {
			log.Printf("memory: skipping undecodable hit: %v", err)
			continue
		}
		records = append(records, doc.record())
	}
	return records, nil
}

func memoryFilters(memoryType models.MemoryType, clientID, processID string) []string {
	var filters []string
	if memoryType != "" {
		filters = append(filters, fmt.Sprintf("type = %q", memoryType))
	}
	if clientID != "" {
		filters = append(filters, fmt.Sprintf("clientId = %q", clientID))
	}
	if processID != "" {
		filters = append(filters, fmt.Sprintf("processId = %q", processID))
	}
	if len(filters) == 0 {
		return nil
	}
	return []string{strings.Join(filters, " AND ")}
}

func decodeMemoryHit(hit meili.Hit) (memoryDocument, error) {
	var doc memoryDocument
	raw, err := json.Marshal(hit)
	if err != nil {
		return doc, err
	}
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func (d memoryDocument) record() models.MemoryRecord {
	rec := models.MemoryRecord{
		Text:       d.Text,
		Type:       d.Type,
		ClientID:   d.ClientID,
		ProcessID:  d.ProcessID,
		ChunkIndex: d.ChunkIndex,
		Metadata:   d.Metadata,
		CreatedAt:  time.UnixMilli(d.CreatedAt).UTC(),
	}
	if id, err := uuid.Parse(strings.TrimSuffix(d.ID, fmt.Sprintf("-%d", d.ChunkIndex))); err == nil {
		rec.ID = id
	}
	return rec
}
