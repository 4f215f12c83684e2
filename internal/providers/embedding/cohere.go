package embedding

import (
	"context"
	"encoding/base64"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/media"
	"stdapi-go/internal/normalize"
)

// cohereAdapter issues a single batched call for the whole input list.
// Uniform batches use the texts/images arrays; mixed batches need the v4
// content-list body and are rejected on v3 models.
type cohereAdapter struct {
	resolver *media.Resolver
}

const defaultInputType = "search_document"

func (a *cohereAdapter) BuildCalls(ctx context.Context, req *Request) ([]Call, error) {
	texts, images := 0, 0
	for _, in := range req.Inputs {
		switch in.Kind {
		case media.KindText:
			texts++
		case media.KindImage:
			images++
		}
	}

	inputType := defaultInputType
	if v, ok := req.Extra["input_type"].(string); ok && v != "" {
		inputType = v
	}

	var (
		body []byte
		err  error
	)
	switch {
	case images == 0:
		body, err = a.buildTexts(req, inputType)
	case texts == 0:
		// All-image batches always embed as image regardless of the
		// requested input type.
		body, err = a.buildImages(ctx, req, "image")
	case req.Cap.CohereContentList:
		body, err = a.buildContentList(ctx, req, inputType)
	default:
		return nil, apperrors.NewInvalidRequestf(
			"The model `%s` cannot embed a batch mixing text and image inputs.", req.Cap.ModelID)
	}
	if err != nil {
		return nil, err
	}

	if req.Dimensions > 0 {
		if body, err = sjson.SetBytes(body, "output_dimension", req.Dimensions); err != nil {
			return nil, apperrors.AsAPIError(err)
		}
	}
	if body, err = mergeExtras(body, req.Extra, "input_type"); err != nil {
		return nil, err
	}

	indices := make([]int, len(req.Inputs))
	for i, in := range req.Inputs {
		indices[i] = in.Index
	}
	return []Call{{ModelID: req.ModelID, Body: body, Indices: indices}}, nil
}

func (a *cohereAdapter) buildTexts(req *Request, inputType string) ([]byte, error) {
	texts := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		texts[i] = in.Text
	}
	body, err := sjson.SetBytes([]byte(`{}`), "input_type", inputType)
	if err == nil {
		body, err = sjson.SetBytes(body, "texts", texts)
	}
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}
	return body, nil
}

func (a *cohereAdapter) buildImages(ctx context.Context, req *Request, inputType string) ([]byte, error) {
	images := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		uri, err := a.imageDataURI(ctx, in)
		if err != nil {
			return nil, err
		}
		images[i] = uri
	}
	body, err := sjson.SetBytes([]byte(`{}`), "input_type", inputType)
	if err == nil {
		body, err = sjson.SetBytes(body, "images", images)
	}
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}
	return body, nil
}

func (a *cohereAdapter) buildContentList(ctx context.Context, req *Request, inputType string) ([]byte, error) {
	inputs := make([]map[string]any, len(req.Inputs))
	for i, in := range req.Inputs {
		switch in.Kind {
		case media.KindText:
			inputs[i] = map[string]any{
				"content": []map[string]any{{"type": "text", "text": in.Text}},
			}
		case media.KindImage:
			uri, err := a.imageDataURI(ctx, in)
			if err != nil {
				return nil, err
			}
			inputs[i] = map[string]any{
				"content": []map[string]any{{"type": "image_url", "image_url": map[string]any{"url": uri}}},
			}
		}
	}
	body, err := sjson.SetBytes([]byte(`{}`), "input_type", inputType)
	if err == nil {
		body, err = sjson.SetBytes(body, "inputs", inputs)
	}
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}
	return body, nil
}

func (a *cohereAdapter) imageDataURI(ctx context.Context, in *media.Resolved) (string, error) {
	data := in.Data
	if in.Ref != "" {
		var err error
		if data, err = a.resolver.Fetch(ctx, in.Ref); err != nil {
			return "", apperrors.AsAPIError(err)
		}
	}
	return "data:" + in.MIME + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (a *cohereAdapter) ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error) {
	embeddings := gjson.GetBytes(payload, "embeddings")
	if embeddings.IsObject() {
		embeddings = embeddings.Get("float")
	}
	if !embeddings.IsArray() {
		return nil, 0, apperrors.NewUpstream("Provider response is missing the embeddings")
	}
	vectors := embeddings.Array()
	if len(vectors) != len(call.Indices) {
		return nil, 0, apperrors.NewUpstream("Provider returned an unexpected number of embeddings")
	}
	rows := make([]normalize.Row, len(vectors))
	for i, vec := range vectors {
		rows[i] = normalize.Row{Index: call.Indices[i], Vector: vectorOf(vec)}
	}
	tokens := int(gjson.GetBytes(payload, "meta.billed_units.input_tokens").Int())
	return rows, tokens, nil
}
