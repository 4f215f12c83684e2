package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/registry"
)

type stubInvoker struct {
	fn func(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

func (s *stubInvoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	return s.fn(ctx, modelID, body)
}

func mustCap(t *testing.T, modelID string) *registry.Capability {
	t.Helper()
	cap, ok := registry.Lookup(modelID)
	require.True(t, ok, "model %s must be registered", modelID)
	return cap
}

func pngPayload(n int) []byte {
	encoded := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	images := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			images += ","
		}
		images += fmt.Sprintf("%q", encoded)
	}
	return []byte(fmt.Sprintf(`{"images":[%s]}`, images))
}

func TestNovaCanvasBody(t *testing.T) {
	var captured []byte
	invoker := &stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		captured = body
		require.Equal(t, "amazon.nova-canvas-v1:0", modelID)
		return pngPayload(2), nil
	}}

	runner := NewRunner(invoker, 4)
	images, format, err := runner.Generate(context.Background(), &Request{
		ModelID: "amazon.nova-canvas-v1:0",
		Cap:     mustCap(t, "amazon.nova-canvas-v1:0"),
		Prompt:  "a lighthouse at dusk",
		N:       2,
		Width:   1024,
		Height:  1024,
		Quality: "hd",
		Style:   "PHOTOREALISM",
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, "png", format)

	require.Equal(t, "TEXT_IMAGE", gjson.GetBytes(captured, "taskType").String())
	require.Equal(t, "a lighthouse at dusk", gjson.GetBytes(captured, "textToImageParams.text").String())
	require.Equal(t, "PHOTOREALISM", gjson.GetBytes(captured, "textToImageParams.style").String())
	require.Equal(t, int64(1024), gjson.GetBytes(captured, "imageGenerationConfig.width").Int())
	require.Equal(t, int64(2), gjson.GetBytes(captured, "imageGenerationConfig.numberOfImages").Int())
	require.Equal(t, "premium", gjson.GetBytes(captured, "imageGenerationConfig.quality").String())
}

func TestAmazonExtraSectionsOverrideDefaults(t *testing.T) {
	var captured []byte
	invoker := &stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		captured = body
		return pngPayload(1), nil
	}}

	runner := NewRunner(invoker, 4)
	_, _, err := runner.Generate(context.Background(), &Request{
		ModelID: "amazon.titan-image-generator-v2:0",
		Cap:     mustCap(t, "amazon.titan-image-generator-v2:0"),
		Prompt:  "sunrise",
		N:       1,
		Width:   512,
		Height:  512,
		Extra: map[string]any{
			"textToImageParams":     map[string]any{"negativeText": "blurry"},
			"imageGenerationConfig": map[string]any{"seed": 42, "cfgScale": 7.5},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "blurry", gjson.GetBytes(captured, "textToImageParams.negativeText").String())
	require.Equal(t, int64(42), gjson.GetBytes(captured, "imageGenerationConfig.seed").Int())
	require.Equal(t, 7.5, gjson.GetBytes(captured, "imageGenerationConfig.cfgScale").Float())
}

func TestTitanImageRejectsStyle(t *testing.T) {
	runner := NewRunner(&stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		t.Fatal("no provider call expected")
		return nil, nil
	}}, 4)

	_, _, err := runner.Generate(context.Background(), &Request{
		ModelID: "amazon.titan-image-generator-v2:0",
		Cap:     mustCap(t, "amazon.titan-image-generator-v2:0"),
		Prompt:  "sunrise",
		Style:   "natural",
	})
	require.Error(t, err)

	apiErr := apperrors.AsAPIError(err)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Equal(t, "style", apiErr.Param)
	require.Empty(t, apiErr.Code)
}

func TestStabilityRejectsQuality(t *testing.T) {
	runner := NewRunner(&stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		t.Fatal("no provider call expected")
		return nil, nil
	}}, 4)

	_, _, err := runner.Generate(context.Background(), &Request{
		ModelID: "stability.sd3-5-large-v1:0",
		Cap:     mustCap(t, "stability.sd3-5-large-v1:0"),
		Prompt:  "sunrise",
		Quality: "hd",
	})
	require.Error(t, err)

	apiErr := apperrors.AsAPIError(err)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Equal(t, "quality", apiErr.Param)
}

func TestStabilityFansOutPerImage(t *testing.T) {
	var calls atomic.Int32
	encoded := base64.StdEncoding.EncodeToString([]byte("sd-bytes"))
	invoker := &stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		calls.Add(1)
		require.Equal(t, "text-to-image", gjson.GetBytes(body, "mode").String())
		require.Equal(t, "16:9", gjson.GetBytes(body, "aspect_ratio").String())
		require.Equal(t, "jpeg", gjson.GetBytes(body, "output_format").String())
		return []byte(fmt.Sprintf(`{"images":[%q],"finish_reasons":[null]}`, encoded)), nil
	}}

	runner := NewRunner(invoker, 4)
	images, format, err := runner.Generate(context.Background(), &Request{
		ModelID: "stability.sd3-5-large-v1:0",
		Cap:     mustCap(t, "stability.sd3-5-large-v1:0"),
		Prompt:  "sunrise",
		N:       3,
		Width:   1792,
		Height:  1024,
	})
	require.NoError(t, err)
	require.Len(t, images, 3)
	require.Equal(t, "jpeg", format)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []byte("sd-bytes"), images[0])
}

func TestStabilityFilteredResultBecomesInvalidRequest(t *testing.T) {
	invoker := &stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		return []byte(`{"images":[""],"finish_reasons":["Filter reason: prompt"]}`), nil
	}}

	runner := NewRunner(invoker, 4)
	_, _, err := runner.Generate(context.Background(), &Request{
		ModelID: "stability.stable-image-core-v1:1",
		Cap:     mustCap(t, "stability.stable-image-core-v1:1"),
		Prompt:  "something disallowed",
		N:       1,
	})
	require.Error(t, err)

	apiErr := apperrors.AsAPIError(err)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Contains(t, apiErr.Message, "Request was filtered")
}

func TestCanvasErrorFieldBecomesInvalidRequest(t *testing.T) {
	invoker := &stubInvoker{fn: func(ctx context.Context, modelID string, body []byte) ([]byte, error) {
		return []byte(`{"images":[],"error":"This request has been blocked by content filters."}`), nil
	}}

	runner := NewRunner(invoker, 4)
	_, _, err := runner.Generate(context.Background(), &Request{
		ModelID: "amazon.nova-canvas-v1:0",
		Cap:     mustCap(t, "amazon.nova-canvas-v1:0"),
		Prompt:  "sunrise",
	})
	require.Error(t, err)

	apiErr := apperrors.AsAPIError(err)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Contains(t, apiErr.Message, "blocked by content filters")
}

func TestNearestAspectRatio(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{1024, 1024, "1:1"},
		{1792, 1024, "16:9"},
		{1024, 1792, "9:16"},
		{0, 0, "1:1"},
		{2100, 900, "21:9"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, nearestAspectRatio(tc.width, tc.height),
			"%dx%d", tc.width, tc.height)
	}
}

func TestNormalizeQuality(t *testing.T) {
	for _, q := range []string{"", "standard", "low", "medium", "auto"} {
		got, err := NormalizeQuality(q)
		require.NoError(t, err)
		require.Equal(t, "standard", got)
	}
	for _, q := range []string{"hd", "high", "premium"} {
		got, err := NormalizeQuality(q)
		require.NoError(t, err)
		require.Equal(t, "premium", got)
	}
	_, err := NormalizeQuality("ultra")
	require.Error(t, err)
}
