package server

import (
	"github.com/gin-gonic/gin"

	"stdapi-go/internal/config"
	oh "stdapi-go/internal/handlers/openai"
	mw "stdapi-go/internal/middleware"
)

// registerOpenAIRoutes mounts the OpenAI-compatible endpoints under /v1.
func registerOpenAIRoutes(engine *gin.Engine, cfg *config.FileConfig, handler *oh.Handler) {
	v1 := engine.Group("/v1")
	if len(cfg.APIKeys) > 0 {
		v1.Use(mw.APIKeyAuth(cfg.APIKeys))
	}

	v1.GET("/models", handler.ListModels)
	v1.GET("/models/:id", handler.GetModel)
	v1.POST("/embeddings", handler.CreateEmbeddings)
	v1.POST("/images/generations", handler.CreateImages)
	v1.POST("/audio/translations", handler.CreateTranslation)
	v1.GET("/files/*key", handler.GetFile)
}
