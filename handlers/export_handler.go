package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"pecajuridica-backend/docx"
	"pecajuridica-backend/service"

	"github.com/gin-gonic/gin"
)

// ExportHandler handles HTTP requests for document containers
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportPiece handles GET /api/pieces/:id/export
func (h *ExportHandler) ExportPiece(c *gin.Context) {
	result, err := h.exportService.ExportPiece(c.Request.Context(), service.ExportRequest{
		PieceID: c.Param("id"),
		Archive: c.Query("archive") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.StoragePath != "" {
		c.Header("X-Export-Path", result.StoragePath)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.File.Filename))
	c.Data(http.StatusOK, result.File.MimeType, result.File.Data)
}

// DownloadExport handles GET /api/exports/*path
func (h *ExportHandler) DownloadExport(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	rc, err := h.exportService.OpenExport(c.Request.Context(), storagePath)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if strings.HasSuffix(storagePath, ".docx") {
		contentType = docx.MimeType
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, path.Base(storagePath)),
	})
}

// DeleteExport handles DELETE /api/exports/*path
func (h *ExportHandler) DeleteExport(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	if err := h.exportService.RemoveExport(c.Request.Context(), storagePath); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"path": storagePath,
		},
	})
}
