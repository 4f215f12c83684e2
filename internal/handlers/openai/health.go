package openai

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stdapi-go/internal/version"
)

// Health implements GET /health: liveness plus storage reachability.
func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	storage := "ok"
	if err := h.store.Health(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		storage = "unavailable"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"version": version.Version,
		"storage": storage,
	})
}
