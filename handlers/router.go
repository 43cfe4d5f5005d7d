package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every handler under /api
func NewRouter(pieces *PieceHandler, memory *MemoryHandler, exports *ExportHandler) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		// Template endpoints
		api.GET("/templates", pieces.ListTemplates)

		// Piece endpoints
		api.POST("/pieces", pieces.GeneratePiece)
		api.GET("/pieces/:id", pieces.GetPiece)
		api.POST("/pieces/:id/topics/:topicId/refine", pieces.RefineStoredTopic)
		api.GET("/pieces/:id/export", exports.ExportPiece)

		// Refinement endpoints
		api.POST("/topics/refine", pieces.RefineTopic)
		api.POST("/text/refine", pieces.RefineText)

		// Export archive endpoints
		api.GET("/exports/*path", exports.DownloadExport)
		api.DELETE("/exports/*path", exports.DeleteExport)

		// Memory endpoints
		api.GET("/memory", memory.QueryMemory)
		api.GET("/memory/clients/:id", memory.ListClientMemory)
		api.GET("/memory/processes/:id", memory.ListProcessMemory)
	}

	return r
}
