package imagegen

import (
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "stdapi-go/internal/errors"
)

// stabilityAdapter covers the Stable Diffusion 3 / Stable Image family. The
// native API produces one image per invocation, so n maps to n calls.
type stabilityAdapter struct{}

// stabilityRatios are the aspect ratios the service accepts. Requested pixel
// sizes snap to the nearest one.
var stabilityRatios = []struct {
	name  string
	value float64
}{
	{"1:1", 1.0},
	{"16:9", 16.0 / 9.0},
	{"21:9", 21.0 / 9.0},
	{"2:3", 2.0 / 3.0},
	{"3:2", 3.0 / 2.0},
	{"4:5", 4.0 / 5.0},
	{"5:4", 5.0 / 4.0},
	{"9:16", 9.0 / 16.0},
	{"9:21", 9.0 / 21.0},
}

func nearestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	target := float64(width) / float64(height)
	best := stabilityRatios[0]
	bestDiff := math.Abs(best.value - target)
	for _, r := range stabilityRatios[1:] {
		if diff := math.Abs(r.value - target); diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	return best.name
}

func (a *stabilityAdapter) outputFormat(req *Request) string {
	if req.OutputFormat == "jpg" || req.OutputFormat == "jpeg" {
		return "jpeg"
	}
	if req.OutputFormat == "png" {
		return "png"
	}
	return "jpeg"
}

func (a *stabilityAdapter) BuildCalls(req *Request) ([]Call, error) {
	body := []byte(`{"mode":"text-to-image"}`)
	body, _ = sjson.SetBytes(body, "prompt", req.Prompt)
	body, _ = sjson.SetBytes(body, "aspect_ratio", nearestAspectRatio(req.Width, req.Height))
	body, _ = sjson.SetBytes(body, "output_format", a.outputFormat(req))
	if req.Style != "" {
		body, _ = sjson.SetBytes(body, "style_preset", req.Style)
	}

	var err error
	for key, value := range req.Extra {
		body, err = sjson.SetBytes(body, key, value)
		if err != nil {
			return nil, apperrors.NewInvalidRequestf("Invalid '%s'.", key)
		}
	}

	calls := make([]Call, req.N)
	for i := range calls {
		calls[i] = Call{ModelID: req.ModelID, Body: body, Count: 1}
	}
	return calls, nil
}

func (a *stabilityAdapter) ParseResponse(req *Request, _ Call, payload []byte) ([][]byte, error) {
	for _, reason := range gjson.GetBytes(payload, "finish_reasons").Array() {
		if reason.Type != gjson.Null && reason.String() != "" {
			return nil, apperrors.NewInvalidRequestf("Request was filtered: %s.", reason.String())
		}
	}
	images := gjson.GetBytes(payload, "images")
	if !images.IsArray() || len(images.Array()) == 0 {
		return nil, apperrors.NewUpstream("Provider returned no images")
	}
	return decodeImages([]string{images.Array()[0].String()})
}

func (a *stabilityAdapter) NativeFormat(req *Request) string {
	return a.outputFormat(req)
}
