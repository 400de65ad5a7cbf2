package handler

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/ai"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/stt"
)

type HealthHandler struct {
	db       *sql.DB
	embedder ai.IEmbedder
	engine   stt.Engine
}

func NewHealthHandler(db *sql.DB, embedder ai.IEmbedder, engine stt.Engine) *HealthHandler {
	return &HealthHandler{db: db, embedder: embedder, engine: engine}
}

// Health reports per-capability readiness so clients can learn up front
// whether search and transcription are usable. Only the database degrades
// the overall status; the other capabilities already degrade per request.
func (h *HealthHandler) Health(c *gin.Context) {
	dbOK := true
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			dbOK = false
		}
	}
	status := "ok"
	if !dbOK {
		status = "degraded"
	}
	response.Success(c, gin.H{
		"status":          status,
		"db":              dbOK,
		"model_available": h.embedder != nil && h.embedder.ModelName() != "",
		"stt_available":   h.engine != nil && h.engine.Available(),
	})
}
