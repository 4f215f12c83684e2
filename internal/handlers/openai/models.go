package openai

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/handlers/common"
	"stdapi-go/internal/registry"
)

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// modelsCreated is a fixed catalogue timestamp; the registry is immutable.
const modelsCreated int64 = 1686935002

// ListModels implements GET /v1/models from the capability registry.
func (h *Handler) ListModels(c *gin.Context) {
	caps := registry.List()
	data := make([]modelEntry, len(caps))
	for i, cap := range caps {
		data[i] = modelEntry{
			ID:      cap.ModelID,
			Object:  "model",
			Created: modelsCreated,
			OwnedBy: cap.OwnedBy,
		}
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

// GetModel implements GET /v1/models/:id.
func (h *Handler) GetModel(c *gin.Context) {
	id := c.Param("id")
	cap, ok := registry.Lookup(id)
	if !ok {
		common.AbortWithAPIError(c, apperrors.NewModelNotFound(id))
		return
	}
	c.JSON(http.StatusOK, modelEntry{
		ID:      cap.ModelID,
		Object:  "model",
		Created: modelsCreated,
		OwnedBy: cap.OwnedBy,
	})
}
