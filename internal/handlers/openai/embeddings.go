package openai

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/handlers/common"
	"stdapi-go/internal/media"
	"stdapi-go/internal/providers/embedding"
	"stdapi-go/internal/registry"
	"stdapi-go/internal/tokencount"
)

type embeddingEntry struct {
	Object    string `json:"object"`
	Index     int    `json:"index"`
	Embedding any    `json:"embedding"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type embeddingResponse struct {
	Object string           `json:"object"`
	Data   []embeddingEntry `json:"data"`
	Model  string           `json:"model"`
	Usage  embeddingUsage   `json:"usage"`
}

// embeddingKnownKeys are the OpenAI-recognized request fields. Anything else
// in the body is forwarded to the provider verbatim.
var embeddingKnownKeys = map[string]bool{
	"model":           true,
	"input":           true,
	"dimensions":      true,
	"encoding_format": true,
	"user":            true,
}

// CreateEmbeddings implements POST /v1/embeddings.
func (h *Handler) CreateEmbeddings(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !gjson.ValidBytes(body) {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("Invalid JSON body."))
		return
	}

	model := gjson.GetBytes(body, "model").String()
	if model == "" {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("You must provide a model parameter."))
		return
	}
	cap, ok := registry.Lookup(model)
	if !ok || cap.Task != registry.TaskEmbedding {
		common.AbortWithAPIError(c, apperrors.NewModelNotFound(model))
		return
	}
	c.Set("model", model)

	inputs, apiErr := embeddingInputs(gjson.GetBytes(body, "input"))
	if apiErr != nil {
		common.AbortWithAPIError(c, apiErr)
		return
	}

	encodingFormat := gjson.GetBytes(body, "encoding_format").String()
	if encodingFormat != "" && encodingFormat != "float" && encodingFormat != "base64" {
		common.AbortWithAPIError(c,
			apperrors.NewInvalidRequestf("Invalid 'encoding_format': %s. Supported values are: float, base64.", encodingFormat))
		return
	}

	dimensions := 0
	if d := gjson.GetBytes(body, "dimensions"); d.Exists() {
		dimensions = int(d.Int())
	}

	extra, forceOffload := extraParameters(body, embeddingKnownKeys)

	resolved := make([]*media.Resolved, len(inputs))
	for i, in := range inputs {
		item, err := h.resolver.Resolve(c.Request.Context(), i, in, forceOffload)
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		resolved[i] = item
	}

	rows, tokens, err := h.embedder.Embed(c.Request.Context(), &embedding.Request{
		ModelID:    model,
		Cap:        cap,
		Inputs:     resolved,
		Dimensions: dimensions,
		Extra:      extra,
	})
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	if tokens == 0 {
		for _, item := range resolved {
			if item.Kind == media.KindText {
				tokens += tokencount.Estimate(item.Text)
			}
		}
	}

	resp := embeddingResponse{
		Object: "list",
		Data:   make([]embeddingEntry, len(rows)),
		Model:  model,
		Usage:  embeddingUsage{PromptTokens: tokens, TotalTokens: tokens},
	}
	for i, row := range rows {
		entry := embeddingEntry{Object: "embedding", Index: row.Index}
		if encodingFormat == "base64" {
			entry.Embedding = encodeVector(row.Vector)
		} else {
			entry.Embedding = row.Vector
		}
		resp.Data[i] = entry
	}
	c.JSON(http.StatusOK, resp)
}

func embeddingInputs(input gjson.Result) ([]string, *apperrors.APIError) {
	switch {
	case input.Type == gjson.String:
		return []string{input.String()}, nil
	case input.IsArray():
		items := input.Array()
		if len(items) == 0 {
			return nil, apperrors.NewInvalidRequest("'input' must not be empty.")
		}
		out := make([]string, len(items))
		for i, item := range items {
			if item.Type != gjson.String {
				return nil, apperrors.NewInvalidRequest("Unsupported input type.")
			}
			out[i] = item.String()
		}
		return out, nil
	default:
		return nil, apperrors.NewInvalidRequest("You must provide an input parameter.")
	}
}

// extraParameters collects the unrecognized top-level request fields and pops
// the force_s3_data routing flag out of them.
func extraParameters(body []byte, known map[string]bool) (map[string]any, bool) {
	var all map[string]any
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, false
	}
	extra := make(map[string]any)
	for key, value := range all {
		if !known[key] {
			extra[key] = value
		}
	}
	forceOffload := false
	if v, ok := extra["force_s3_data"]; ok {
		forceOffload, _ = v.(bool)
		delete(extra, "force_s3_data")
	}
	if len(extra) == 0 {
		return nil, forceOffload
	}
	return extra, forceOffload
}

// encodeVector serializes a vector as little-endian float32 bytes in base64.
func encodeVector(vector []float32) string {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}
