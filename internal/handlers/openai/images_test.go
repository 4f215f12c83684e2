package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func canvasPayload(t *testing.T, n int) []byte {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString(tinyPNG(t))
	images := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			images += ","
		}
		images += fmt.Sprintf("%q", encoded)
	}
	return []byte(fmt.Sprintf(`{"images":[%s]}`, images))
}

func TestCreateImagesB64(t *testing.T) {
	invoker := &stubInvoker{fn: func(_ context.Context, modelID string, body []byte) ([]byte, error) {
		require.Equal(t, "amazon.nova-canvas-v1:0", modelID)
		require.Equal(t, "a fox", gjson.GetBytes(body, "textToImageParams.text").String())
		require.Equal(t, int64(2), gjson.GetBytes(body, "imageGenerationConfig.numberOfImages").Int())
		return canvasPayload(t, 2), nil
	}}
	env := newTestEnv(t, invoker, nil, nil)

	w := env.postJSON(t, "/v1/images/generations",
		`{"model":"amazon.nova-canvas-v1:0","prompt":"a fox","n":2,"response_format":"b64_json"}`)
	require.Equal(t, 200, w.Code)

	body := w.Body.String()
	require.Equal(t, int64(2), gjson.Get(body, "data.#").Int())
	require.Equal(t, "png", gjson.Get(body, "output_format").String())
	require.Equal(t, "1024x1024", gjson.Get(body, "size").String())
	require.Equal(t, "opaque", gjson.Get(body, "background").String())
	require.Equal(t, int64(2), gjson.Get(body, "usage.output_tokens").Int())
	require.Greater(t, gjson.Get(body, "usage.input_tokens").Int(), int64(0))

	raw, err := base64.StdEncoding.DecodeString(gjson.Get(body, "data.0.b64_json").String())
	require.NoError(t, err)
	require.Equal(t, []byte("\x89PNG\r\n\x1a\n"), raw[:8])
}

func TestCreateImagesOutputFormatConversion(t *testing.T) {
	invoker := &stubInvoker{fn: func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return canvasPayload(t, 1), nil
	}}
	env := newTestEnv(t, invoker, nil, nil)

	w := env.postJSON(t, "/v1/images/generations",
		`{"model":"amazon.nova-canvas-v1:0","prompt":"a fox","response_format":"b64_json","output_format":"jpeg"}`)
	require.Equal(t, 200, w.Code)

	body := w.Body.String()
	require.Equal(t, "jpeg", gjson.Get(body, "output_format").String())
	raw, err := base64.StdEncoding.DecodeString(gjson.Get(body, "data.0.b64_json").String())
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8, 0xFF}, raw[:3])
}

func TestCreateImagesURLServedFromStore(t *testing.T) {
	invoker := &stubInvoker{fn: func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return canvasPayload(t, 1), nil
	}}
	env := newTestEnv(t, invoker, nil, nil)

	w := env.postJSON(t, "/v1/images/generations",
		`{"model":"amazon.nova-canvas-v1:0","prompt":"a fox","response_format":"url"}`)
	require.Equal(t, 200, w.Code)

	url := gjson.Get(w.Body.String(), "data.0.url").String()
	require.Contains(t, url, "/v1/files/images/")
	require.Equal(t, int32(1), env.store.puts.Load())

	// The URL path resolves against the file route.
	idx := strings.Index(url, "/v1/files/")
	require.GreaterOrEqual(t, idx, 0)
	resp := env.get(t, url[idx:])
	require.Equal(t, 200, resp.Code)
	require.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	require.Equal(t, []byte("\x89PNG\r\n\x1a\n"), resp.Body.Bytes()[:8])
}

func TestCreateImagesUnknownModel(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)

	w := env.postJSON(t, "/v1/images/generations", `{"model":"dall-e-9","prompt":"x"}`)
	require.Equal(t, 404, w.Code)
	require.Equal(t, "model_not_found", gjson.Get(w.Body.String(), "error.code").String())
}

func TestCreateImagesStyleRejectedForTitan(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)

	w := env.postJSON(t, "/v1/images/generations",
		`{"model":"amazon.titan-image-generator-v2:0","prompt":"x","style":"natural"}`)
	require.Equal(t, 400, w.Code)

	body := w.Body.String()
	require.Equal(t, "style", gjson.Get(body, "error.param").String())
	require.Equal(t, gjson.Null, gjson.Get(body, "error.code").Type)
}

func TestCreateImagesValidation(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)

	for name, body := range map[string]string{
		"missing prompt": `{"model":"amazon.nova-canvas-v1:0"}`,
		"bad size":       `{"model":"amazon.nova-canvas-v1:0","prompt":"x","size":"huge"}`,
		"bad n":          `{"model":"amazon.nova-canvas-v1:0","prompt":"x","n":0}`,
		"bad format":     `{"model":"amazon.nova-canvas-v1:0","prompt":"x","response_format":"hex"}`,
	} {
		w := env.postJSON(t, "/v1/images/generations", body)
		require.Equal(t, 400, w.Code, name)
	}
}
