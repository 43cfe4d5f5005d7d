package handlers

import (
	"errors"
	"log"
	"net/http"

	"pecajuridica-backend/docx"
	"pecajuridica-backend/service"
	"pecajuridica-backend/templates"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps service errors to status codes and error codes
func respondServiceError(c *gin.Context, err error) {
	var missing *service.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_REQUIRED_FIELDS",
				"message": err.Error(),
				"fields":  missing.Fields,
			},
		})
	case errors.Is(err, templates.ErrUnknownDocumentType):
		respondError(c, http.StatusBadRequest, "UNKNOWN_DOCUMENT_TYPE", err.Error())
	case errors.Is(err, service.ErrPieceNotFound):
		respondError(c, http.StatusNotFound, "PIECE_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrTopicNotFound):
		respondError(c, http.StatusNotFound, "TOPIC_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrExportNotFound):
		respondError(c, http.StatusNotFound, "EXPORT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		respondError(c, http.StatusBadGateway, "GENERATION_FAILED", err.Error())
	case errors.Is(err, docx.ErrContainerBuildFailed):
		respondError(c, http.StatusInternalServerError, "CONTAINER_BUILD_FAILED", err.Error())
	default:
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
