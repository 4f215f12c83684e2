package openai

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/handlers/common"
	"stdapi-go/internal/imaging"
	"stdapi-go/internal/objstore"
	"stdapi-go/internal/providers/imagegen"
	"stdapi-go/internal/registry"
	"stdapi-go/internal/tokencount"
)

type imageEntry struct {
	B64JSON string `json:"b64_json,omitempty"`
	URL     string `json:"url,omitempty"`
}

type imageUsageDetails struct {
	ImageTokens int `json:"image_tokens"`
	TextTokens  int `json:"text_tokens"`
}

type imageUsage struct {
	InputTokens        int               `json:"input_tokens"`
	InputTokensDetails imageUsageDetails `json:"input_tokens_details"`
	OutputTokens       int               `json:"output_tokens"`
	TotalTokens        int               `json:"total_tokens"`
}

type imagesResponse struct {
	Created      int64        `json:"created"`
	Data         []imageEntry `json:"data"`
	OutputFormat string       `json:"output_format"`
	Size         string       `json:"size"`
	Background   string       `json:"background"`
	Quality      string       `json:"quality,omitempty"`
	Usage        imageUsage   `json:"usage"`
}

var imageKnownKeys = map[string]bool{
	"model":           true,
	"prompt":          true,
	"n":               true,
	"size":            true,
	"quality":         true,
	"style":           true,
	"response_format": true,
	"output_format":   true,
	"user":            true,
}

// CreateImages implements POST /v1/images/generations.
func (h *Handler) CreateImages(c *gin.Context) {
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
	if !ok || cap.Task != registry.TaskImage {
		common.AbortWithAPIError(c, apperrors.NewModelNotFound(model))
		return
	}
	c.Set("model", model)

	prompt := gjson.GetBytes(body, "prompt").String()
	if strings.TrimSpace(prompt) == "" {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("You must provide a prompt."))
		return
	}

	width, height, apiErr := parseSize(gjson.GetBytes(body, "size").String())
	if apiErr != nil {
		common.AbortWithAPIError(c, apiErr)
		return
	}

	n := 1
	if v := gjson.GetBytes(body, "n"); v.Exists() {
		n = int(v.Int())
		if n < 1 || n > 10 {
			common.AbortWithAPIError(c, apperrors.NewInvalidRequest("Invalid 'n': must be between 1 and 10."))
			return
		}
	}

	quality := gjson.GetBytes(body, "quality").String()
	if quality == "auto" {
		// Model default.
		quality = ""
	}

	responseFormat := gjson.GetBytes(body, "response_format").String()
	if responseFormat == "" {
		responseFormat = "url"
	}
	if responseFormat != "url" && responseFormat != "b64_json" {
		common.AbortWithAPIError(c,
			apperrors.NewInvalidRequestf("Invalid 'response_format': %s. Supported values are: url, b64_json.", responseFormat))
		return
	}

	outputFormat := gjson.GetBytes(body, "output_format").String()
	extra, _ := extraParameters(body, imageKnownKeys)

	images, nativeFormat, err := h.images.Generate(c.Request.Context(), &imagegen.Request{
		ModelID:      model,
		Cap:          cap,
		Prompt:       prompt,
		N:            n,
		Width:        width,
		Height:       height,
		Quality:      quality,
		Style:        gjson.GetBytes(body, "style").String(),
		OutputFormat: outputFormat,
		Extra:        extra,
	})
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	finalFormat := imaging.NormalizeFormat(outputFormat)
	if finalFormat == "" {
		finalFormat = nativeFormat
	}

	entries := make([]imageEntry, len(images))
	for i, img := range images {
		converted, err := imaging.Convert(img, finalFormat)
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		if responseFormat == "url" {
			url, err := h.uploadImage(c, converted, finalFormat)
			if err != nil {
				common.AbortWithError(c, err)
				return
			}
			entries[i] = imageEntry{URL: url}
		} else {
			entries[i] = imageEntry{B64JSON: base64.StdEncoding.EncodeToString(converted)}
		}
	}

	inputTokens := tokencount.Estimate(prompt)
	c.JSON(http.StatusOK, imagesResponse{
		Created:      time.Now().Unix(),
		Data:         entries,
		OutputFormat: finalFormat,
		Size:         fmt.Sprintf("%dx%d", width, height),
		Background:   "opaque",
		Quality:      quality,
		Usage: imageUsage{
			InputTokens:        inputTokens,
			InputTokensDetails: imageUsageDetails{TextTokens: inputTokens},
			OutputTokens:       n,
			TotalTokens:        inputTokens + n,
		},
	})
}

// uploadImage stores a generated image and returns the URL it is served from.
func (h *Handler) uploadImage(c *gin.Context, data []byte, format string) (string, error) {
	key := fmt.Sprintf("images/%s.%s", uuid.NewString(), format)
	if _, err := h.store.Put(c.Request.Context(), key, data, "image/"+format); err != nil {
		return "", apperrors.NewUpstream("Generated image could not be stored")
	}

	base := strings.TrimRight(h.cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/v1/files/" + key, nil
}

// GetFile implements GET /v1/files/*key, serving stored objects such as
// generated images referenced by URL responses.
func (h *Handler) GetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("Missing file key."))
		return
	}

	data, contentType, err := h.store.Get(c.Request.Context(), objstore.Ref(h.cfg, key))
	if err != nil {
		if objstore.IsNotFound(err) {
			common.AbortWithAPIError(c, apperrors.New(http.StatusNotFound,
				apperrors.TypeInvalidRequest, "", "No such file: "+key+"."))
			return
		}
		common.AbortWithAPIError(c, apperrors.NewUpstream("Stored object could not be read"))
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

func parseSize(size string) (int, int, *apperrors.APIError) {
	if size == "" || size == "auto" {
		return 1024, 1024, nil
	}
	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) == 2 {
		width, err1 := strconv.Atoi(parts[0])
		height, err2 := strconv.Atoi(parts[1])
		if err1 == nil && err2 == nil && width > 0 && height > 0 {
			return width, height, nil
		}
	}
	return 0, 0, apperrors.NewInvalidRequestf("Invalid 'size': %s. Expected WIDTHxHEIGHT, for example 1024x1024.", size)
}
