package openai

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"stdapi-go/internal/config"
	"stdapi-go/internal/media"
	"stdapi-go/internal/objstore"
	"stdapi-go/internal/providers/embedding"
	"stdapi-go/internal/providers/imagegen"
	"stdapi-go/internal/subtitle"
	"stdapi-go/internal/transcribe"
)

type stubInvoker struct {
	fn func(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

func (s *stubInvoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	return s.fn(ctx, modelID, body)
}

// countingStore wraps a Store and counts Put calls, making offload paths
// observable in tests.
type countingStore struct {
	objstore.Store
	puts atomic.Int32
}

func (s *countingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.puts.Add(1)
	return s.Store.Put(ctx, key, data, contentType)
}

type stubTranscriber struct {
	result  *transcribe.Result
	err     error
	gotOpts transcribe.Options
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string, opts transcribe.Options) (*transcribe.Result, error) {
	s.gotOpts = opts
	return s.result, s.err
}

type stubTranslator struct {
	fn func(text, source, target string) (string, error)
}

func (s *stubTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	return s.fn(text, source, target)
}

type testEnv struct {
	handler *Handler
	store   *countingStore
	router  *gin.Engine
}

func newTestEnv(t *testing.T, invoker *stubInvoker, transcriber *stubTranscriber, translator *stubTranslator) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.FileConfig{InvokeConcurrency: 2}
	store := &countingStore{Store: objstore.NewMemoryStore("test-bucket")}
	resolver := media.NewResolver(store)
	if translator == nil {
		translator = &stubTranslator{fn: func(text, _, _ string) (string, error) { return text, nil }}
	}
	if transcriber == nil {
		transcriber = &stubTranscriber{result: &transcribe.Result{}}
	}
	if invoker == nil {
		invoker = &stubInvoker{fn: func(context.Context, string, []byte) ([]byte, error) {
			t.Fatal("no provider call expected")
			return nil, nil
		}}
	}

	h := New(cfg, Deps{
		Store:       store,
		Resolver:    resolver,
		Embedder:    embedding.NewDispatcher(invoker, resolver, 2),
		Images:      imagegen.NewRunner(invoker, 2),
		Transcriber: transcriber,
		Translator:  translator,
	})

	router := gin.New()
	v1 := router.Group("/v1")
	v1.POST("/embeddings", h.CreateEmbeddings)
	v1.POST("/images/generations", h.CreateImages)
	v1.POST("/audio/translations", h.CreateTranslation)
	v1.GET("/models", h.ListModels)
	v1.GET("/models/:id", h.GetModel)
	v1.GET("/files/*key", h.GetFile)
	router.GET("/health", h.Health)

	return &testEnv{handler: h, store: store, router: router}
}

func (e *testEnv) postJSON(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func wavBytes() []byte {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(header, make([]byte, 32)...)
}

func sampleCues() []subtitle.Cue {
	return []subtitle.Cue{
		{Start: 500_000_000, End: 2_000_000_000, Text: "Bonjour."},
		{Start: 2_500_000_000, End: 4_000_000_000, Text: "Au revoir."},
	}
}
