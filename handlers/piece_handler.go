package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pecajuridica-backend/service"
	"pecajuridica-backend/templates"

	"github.com/gin-gonic/gin"
)

// PieceHandler handles HTTP requests for pieces and refinements
type PieceHandler struct {
	pieceService *service.PieceService
}

// NewPieceHandler creates a new piece handler
func NewPieceHandler(pieceService *service.PieceService) *PieceHandler {
	return &PieceHandler{
		pieceService: pieceService,
	}
}

// ListTemplates handles GET /api/templates
func (h *PieceHandler) ListTemplates(c *gin.Context) {
	all := templates.All()
	outlines := make([]gin.H, 0, len(all))
	for _, t := range all {
		titles := make([]string, len(t.Sections))
		for i, name := range t.Sections {
			titles[i] = templates.SectionTitle(name)
		}
		outlines = append(outlines, gin.H{
			"type":           t.Type,
			"title":          t.Title,
			"sections":       t.Sections,
			"section_titles": titles,
			"required":       t.Required,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"document_types": templates.List(),
			"templates":      outlines,
		},
	})
}

// GeneratePieceRequest represents the request body for generating a piece
type GeneratePieceRequest struct {
	DocumentType    string          `json:"document_type" binding:"required"`
	FactSummary     string          `json:"fact_summary"`
	Parties         []PartyRequest  `json:"parties"`
	RequestedRelief string          `json:"requested_relief"`
	Documents       json.RawMessage `json:"documents"`
	ClientID        string          `json:"client_id"`
	ProcessID       string          `json:"process_id"`
}

// GeneratePiece handles POST /api/pieces
func (h *PieceHandler) GeneratePiece(c *gin.Context) {
	var req GeneratePieceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	docType, err := templates.Parse(req.DocumentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := h.pieceService.GeneratePiece(c.Request.Context(), service.GenerateRequest{
		DocumentType:    docType,
		FactSummary:     sanitize(req.FactSummary),
		Parties:         parseParties(req.Parties),
		RequestedRelief: sanitize(req.RequestedRelief),
		Documents:       normalizeDocumentList(req.Documents),
		ClientID:        sanitize(req.ClientID),
		ProcessID:       sanitize(req.ProcessID),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":            result.Piece.ID,
			"document_type": result.Piece.DocumentType,
			"text":          result.Piece.Text,
			"client_name":   result.Piece.ClientName,
			"citations":     result.Citations,
			"research":      result.Research,
			"created_at":    result.Piece.CreatedAt,
		},
	})
}

// GetPiece handles GET /api/pieces/:id
func (h *PieceHandler) GetPiece(c *gin.Context) {
	piece, err := h.pieceService.GetPiece(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    piece,
	})
}

// RefineStoredTopicRequest represents the request body for refining a topic of a stored piece
type RefineStoredTopicRequest struct {
	NewContent   string                 `json:"new_content"`
	ContentType  string                 `json:"content_type"`
	MemoryType   string                 `json:"memory_type"`
	ResearchHint string                 `json:"research_hint"`
	ClientID     string                 `json:"client_id"`
	ProcessID    string                 `json:"process_id"`
	Parties      []PartyRequest         `json:"parties"`
	TopK         int                    `json:"top_k"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// RefineStoredTopic handles POST /api/pieces/:id/topics/:topicId/refine
func (h *PieceHandler) RefineStoredTopic(c *gin.Context) {
	var req RefineStoredTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	contentType, ok := parseMemoryType(req.ContentType)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid content_type")
		return
	}
	memoryType, ok := parseMemoryType(req.MemoryType)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid memory_type")
		return
	}

	result, err := h.pieceService.RefineStoredTopic(c.Request.Context(), service.RefineStoredTopicRequest{
		PieceID:      c.Param("id"),
		TopicID:      c.Param("topicId"),
		NewContent:   sanitize(req.NewContent),
		ContentType:  contentType,
		MemoryFilter: memoryType,
		ResearchHint: sanitize(req.ResearchHint),
		ClientID:     sanitize(req.ClientID),
		ProcessID:    sanitize(req.ProcessID),
		Parties:      parseParties(req.Parties),
		TopK:         req.TopK,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":             result.Piece.ID,
			"section":        result.Section,
			"topic_text":     result.TopicText,
			"full_text":      result.Piece.Text,
			"related_memory": result.RelatedMemory,
			"research":       result.Research,
			"citations":      result.Citations,
			"updated_at":     result.Piece.UpdatedAt,
		},
	})
}

// RefineTopicRequest represents the request body for refining a standalone topic
type RefineTopicRequest struct {
	DocumentType   string `json:"document_type" binding:"required"`
	Topic          string `json:"topic" binding:"required"`
	CurrentContent string `json:"current_content"`
	NewContent     string `json:"new_content"`
	ResearchHint   string `json:"research_hint"`
	MemoryType     string `json:"memory_type"`
	ClientID       string `json:"client_id"`
	ProcessID      string `json:"process_id"`
	TopK           int    `json:"top_k"`
}

// RefineTopic handles POST /api/topics/refine
func (h *PieceHandler) RefineTopic(c *gin.Context) {
	var req RefineTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	docType, err := templates.Parse(req.DocumentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	memoryType, ok := parseMemoryType(req.MemoryType)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid memory_type")
		return
	}

	result, err := h.pieceService.RefineTopic(c.Request.Context(), service.RefineTopicRequest{
		DocumentType:   docType,
		Topic:          sanitize(req.Topic),
		CurrentContent: sanitize(req.CurrentContent),
		NewContent:     sanitize(req.NewContent),
		ResearchHint:   sanitize(req.ResearchHint),
		MemoryFilter:   memoryType,
		ClientID:       sanitize(req.ClientID),
		ProcessID:      sanitize(req.ProcessID),
		TopK:           req.TopK,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"text":           result.Text,
			"related_memory": result.RelatedMemory,
			"research":       result.Research,
			"citations":      result.Citations,
		},
	})
}

// RefineTextRequest represents the request body for a freeform rewrite
type RefineTextRequest struct {
	Text         string `json:"text" binding:"required"`
	Instructions string `json:"instructions"`
	MemoryType   string `json:"memory_type"`
	ClientID     string `json:"client_id"`
	ProcessID    string `json:"process_id"`
	TopK         int    `json:"top_k"`
}

// RefineText handles POST /api/text/refine
func (h *PieceHandler) RefineText(c *gin.Context) {
	var req RefineTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	memoryType, ok := parseMemoryType(req.MemoryType)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid memory_type")
		return
	}

	result, err := h.pieceService.RefineText(c.Request.Context(), service.RefineTextRequest{
		Text:         req.Text,
		Instructions: sanitize(req.Instructions),
		MemoryFilter: memoryType,
		ClientID:     sanitize(req.ClientID),
		ProcessID:    sanitize(req.ProcessID),
		TopK:         req.TopK,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"text":           result.Text,
			"related_memory": result.RelatedMemory,
			"citations":      result.Citations,
		},
	})
}
