package server

import (
	"github.com/gin-gonic/gin"

	"stdapi-go/internal/bedrock"
	"stdapi-go/internal/config"
	oh "stdapi-go/internal/handlers/openai"
	"stdapi-go/internal/media"
	mw "stdapi-go/internal/middleware"
	"stdapi-go/internal/objstore"
	"stdapi-go/internal/providers/embedding"
	"stdapi-go/internal/providers/imagegen"
	"stdapi-go/internal/transcribe"
	"stdapi-go/internal/translate"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
// Zero fields are constructed from configuration; tests inject stubs.
type Dependencies struct {
	Store       objstore.Store
	Invoker     bedrock.Invoker
	Transcriber transcribe.Transcriber
	Translator  translate.Translator
}

// BuildEngine constructs the gin engine serving the OpenAI-compatible API.
func BuildEngine(cfg *config.FileConfig, deps Dependencies) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Invoker == nil {
		deps.Invoker = bedrock.New(cfg)
	}
	if deps.Transcriber == nil {
		deps.Transcriber = transcribe.New(cfg, deps.Store)
	}
	if deps.Translator == nil {
		deps.Translator = translate.New(cfg)
	}

	resolver := media.NewResolver(deps.Store)
	handler := oh.New(cfg, oh.Deps{
		Store:       deps.Store,
		Resolver:    resolver,
		Embedder:    embedding.NewDispatcher(deps.Invoker, resolver, cfg.InvokeConcurrency),
		Images:      imagegen.NewRunner(deps.Invoker, cfg.InvokeConcurrency),
		Transcriber: deps.Transcriber,
		Translator:  deps.Translator,
	})

	engine := gin.New()
	engine.Use(mw.RequestID())
	engine.Use(mw.Recovery())
	engine.Use(mw.CORS())
	if cfg.RequestLog {
		engine.Use(mw.RequestLogger())
	}
	if cfg.RateLimitEnabled {
		engine.Use(mw.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	engine.GET("/health", handler.Health)

	registerOpenAIRoutes(engine, cfg, handler)
	return engine
}
