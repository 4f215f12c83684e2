package imagegen

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "stdapi-go/internal/errors"
)

// amazonAdapter covers Nova Canvas and Titan Image Generator. Both speak the
// same TEXT_IMAGE task shape and emit PNG.
type amazonAdapter struct{}

func (a *amazonAdapter) BuildCalls(req *Request) ([]Call, error) {
	body := []byte(`{"taskType":"TEXT_IMAGE"}`)
	body, _ = sjson.SetBytes(body, "textToImageParams.text", req.Prompt)
	if req.Style != "" {
		body, _ = sjson.SetBytes(body, "textToImageParams.style", req.Style)
	}

	body, _ = sjson.SetBytes(body, "imageGenerationConfig.width", req.Width)
	body, _ = sjson.SetBytes(body, "imageGenerationConfig.height", req.Height)
	body, _ = sjson.SetBytes(body, "imageGenerationConfig.numberOfImages", req.N)
	if req.Quality != "" {
		quality, err := NormalizeQuality(req.Quality)
		if err != nil {
			return nil, err
		}
		body, _ = sjson.SetBytes(body, "imageGenerationConfig.quality", quality)
	}

	var err error
	if body, err = mergeSection(body, "textToImageParams", req.Extra); err != nil {
		return nil, err
	}
	if body, err = mergeSection(body, "imageGenerationConfig", req.Extra); err != nil {
		return nil, err
	}

	return []Call{{ModelID: req.ModelID, Body: body, Count: req.N}}, nil
}

// mergeSection copies caller-supplied keys under one native config object,
// after the standard parameters so the extras win.
func mergeSection(body []byte, section string, extra map[string]any) ([]byte, error) {
	raw, ok := extra[section]
	if !ok {
		return body, nil
	}
	overrides, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.NewInvalidRequestf("Invalid '%s': expected an object.", section)
	}
	var err error
	for key, value := range overrides {
		body, err = sjson.SetBytes(body, section+"."+key, value)
		if err != nil {
			return nil, apperrors.NewInvalidRequestf("Invalid '%s.%s'.", section, key)
		}
	}
	return body, nil
}

func (a *amazonAdapter) ParseResponse(req *Request, _ Call, payload []byte) ([][]byte, error) {
	if msg := gjson.GetBytes(payload, "error"); msg.Exists() && msg.String() != "" {
		return nil, apperrors.NewInvalidRequest(msg.String())
	}
	images := gjson.GetBytes(payload, "images")
	if !images.IsArray() || len(images.Array()) == 0 {
		return nil, apperrors.NewUpstream("Provider returned no images")
	}
	encoded := make([]string, 0, len(images.Array()))
	for _, img := range images.Array() {
		encoded = append(encoded, img.String())
	}
	return decodeImages(encoded)
}

func (a *amazonAdapter) NativeFormat(*Request) string {
	return "png"
}
