package models

import (
	"time"

	"github.com/google/uuid"
)

// MemoryType tags what a stored memory passage is
type MemoryType string

const (
	MemoryTypePiece    MemoryType = "piece"
	MemoryTypeTopic    MemoryType = "topic"
	MemoryTypeCaseLaw  MemoryType = "case_law"
	MemoryTypeDoctrine MemoryType = "doctrine"
	MemoryTypeArticle  MemoryType = "article"
	MemoryTypeThesis   MemoryType = "thesis"
	MemoryTypeInsight  MemoryType = "insight"
)

// Valid reports whether t is a known memory type
func (t MemoryType) Valid() bool {
	switch t {
	case MemoryTypePiece, MemoryTypeTopic, MemoryTypeCaseLaw, MemoryTypeDoctrine,
		MemoryTypeArticle, MemoryTypeThesis, MemoryTypeInsight:
		return true
	}
	return false
}

// MemoryItem is a passage to be written into memory
type MemoryItem struct {
	Text      string                 `json:"text"`
	Type      MemoryType             `json:"type"`
	ClientID  string                 `json:"client_id,omitempty"`
	ProcessID string                 `json:"process_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// MemoryQuery narrows a similarity query
type MemoryQuery struct {
	TopK      int
	Type      MemoryType
	ClientID  string
	ProcessID string
}

// MemoryFilter narrows a listing of stored memory
type MemoryFilter struct {
	ClientID  string
	ProcessID string
	Limit     int
}

// MemoryRecord is a stored memory chunk
type MemoryRecord struct {
	ID         uuid.UUID              `json:"id"`
	Text       string                 `json:"text"`
	Type       MemoryType             `json:"type"`
	ClientID   string                 `json:"client_id,omitempty"`
	ProcessID  string                 `json:"process_id,omitempty"`
	ChunkIndex int                    `json:"chunk_index"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Distance   float64                `json:"distance,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
