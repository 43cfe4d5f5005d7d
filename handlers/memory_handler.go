package handlers

import (
	"net/http"
	"strconv"

	"pecajuridica-backend/service"

	"github.com/gin-gonic/gin"
)

// MemoryHandler handles HTTP requests for browsing stored memory
type MemoryHandler struct {
	pieceService *service.PieceService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(pieceService *service.PieceService) *MemoryHandler {
	return &MemoryHandler{
		pieceService: pieceService,
	}
}

// QueryMemory handles GET /api/memory?q=...&top_k=&type=&client_id=&process_id=
func (h *MemoryHandler) QueryMemory(c *gin.Context) {
	query := sanitize(c.Query("q"))
	if query == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Query parameter q is required")
		return
	}

	topK := service.DefaultTopK
	if raw := c.Query("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxTopK {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "top_k must be between 1 and 20")
			return
		}
		topK = n
	}

	memoryType, ok := parseMemoryType(c.Query("type"))
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid memory type")
		return
	}

	records, err := h.pieceService.QueryMemory(c.Request.Context(), service.QueryMemoryRequest{
		Query:     query,
		Type:      memoryType,
		ClientID:  sanitize(c.Query("client_id")),
		ProcessID: sanitize(c.Query("process_id")),
		TopK:      topK,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// ListClientMemory handles GET /api/memory/clients/:id
func (h *MemoryHandler) ListClientMemory(c *gin.Context) {
	h.list(c, service.ListMemoryRequest{ClientID: sanitize(c.Param("id"))})
}

// ListProcessMemory handles GET /api/memory/processes/:id
func (h *MemoryHandler) ListProcessMemory(c *gin.Context) {
	h.list(c, service.ListMemoryRequest{ProcessID: sanitize(c.Param("id"))})
}

func (h *MemoryHandler) list(c *gin.Context, req service.ListMemoryRequest) {
	req.Limit = service.DefaultLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n >= 1 && n <= service.MaxLimit {
		req.Limit = n
	}

	records, err := h.pieceService.ListMemory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}
