package openai

import (
	"stdapi-go/internal/config"
	"stdapi-go/internal/media"
	"stdapi-go/internal/objstore"
	"stdapi-go/internal/providers/embedding"
	"stdapi-go/internal/providers/imagegen"
	"stdapi-go/internal/transcribe"
	"stdapi-go/internal/translate"
)

// Handler serves the OpenAI-compatible API surface.
type Handler struct {
	cfg         *config.FileConfig
	store       objstore.Store
	resolver    *media.Resolver
	embedder    *embedding.Dispatcher
	images      *imagegen.Runner
	transcriber transcribe.Transcriber
	translator  translate.Translator
}

type Deps struct {
	Store       objstore.Store
	Resolver    *media.Resolver
	Embedder    *embedding.Dispatcher
	Images      *imagegen.Runner
	Transcriber transcribe.Transcriber
	Translator  translate.Translator
}

func New(cfg *config.FileConfig, deps Deps) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       deps.Store,
		resolver:    deps.Resolver,
		embedder:    deps.Embedder,
		images:      deps.Images,
		transcriber: deps.Transcriber,
		translator:  deps.Translator,
	}
}
