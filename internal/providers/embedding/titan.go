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

// titanTextAdapter issues one call per input:
// {"inputText": ..., "dimensions"?: ...} -> {"embedding": [...], "inputTextTokenCount": n}
type titanTextAdapter struct{}

func (a *titanTextAdapter) BuildCalls(ctx context.Context, req *Request) ([]Call, error) {
	calls := make([]Call, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		body, err := sjson.SetBytes([]byte(`{}`), "inputText", in.Text)
		if err != nil {
			return nil, apperrors.AsAPIError(err)
		}
		if req.Dimensions > 0 {
			if body, err = sjson.SetBytes(body, "dimensions", req.Dimensions); err != nil {
				return nil, apperrors.AsAPIError(err)
			}
		}
		if body, err = mergeExtras(body, req.Extra); err != nil {
			return nil, err
		}
		calls = append(calls, Call{ModelID: req.ModelID, Body: body, Indices: []int{in.Index}})
	}
	return calls, nil
}

func (a *titanTextAdapter) ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error) {
	embedding := gjson.GetBytes(payload, "embedding")
	if !embedding.IsArray() {
		return nil, 0, apperrors.NewUpstream("Provider response is missing the embedding")
	}
	row := normalize.Row{Index: call.Indices[0], Vector: vectorOf(embedding)}
	tokens := int(gjson.GetBytes(payload, "inputTextTokenCount").Int())
	return []normalize.Row{row}, tokens, nil
}

// titanMultimodalAdapter handles amazon.titan-embed-image-v1. A qualifying
// text+image pair collapses into a single combined call; anything else goes
// out as independent per-input calls.
type titanMultimodalAdapter struct {
	resolver *media.Resolver
}

func (a *titanMultimodalAdapter) BuildCalls(ctx context.Context, req *Request) ([]Call, error) {
	if req.Cap.AutoCombinesTextImage {
		if pair, ok := combinablePair(req.Inputs); ok {
			call, err := a.buildCombined(ctx, req, pair[0], pair[1])
			if err != nil {
				return nil, err
			}
			return []Call{call}, nil
		}
	}

	calls := make([]Call, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		call, err := a.buildSingle(ctx, req, in)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// combinablePair reports whether the batch is exactly one text plus one image.
func combinablePair(inputs []*media.Resolved) ([2]*media.Resolved, bool) {
	if len(inputs) != 2 {
		return [2]*media.Resolved{}, false
	}
	var text, image *media.Resolved
	for _, in := range inputs {
		switch in.Kind {
		case media.KindText:
			text = in
		case media.KindImage:
			image = in
		}
	}
	if text == nil || image == nil {
		return [2]*media.Resolved{}, false
	}
	return [2]*media.Resolved{text, image}, true
}

func (a *titanMultimodalAdapter) buildCombined(ctx context.Context, req *Request, text, image *media.Resolved) (Call, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "inputText", text.Text)
	if err != nil {
		return Call{}, apperrors.AsAPIError(err)
	}
	b64, err := a.imageBase64(ctx, image)
	if err != nil {
		return Call{}, err
	}
	if body, err = sjson.SetBytes(body, "inputImage", b64); err != nil {
		return Call{}, apperrors.AsAPIError(err)
	}
	body, err = a.finishBody(body, req)
	if err != nil {
		return Call{}, err
	}
	first := text.Index
	if image.Index < first {
		first = image.Index
	}
	return Call{ModelID: req.ModelID, Body: body, Indices: []int{first}}, nil
}

func (a *titanMultimodalAdapter) buildSingle(ctx context.Context, req *Request, in *media.Resolved) (Call, error) {
	var (
		body = []byte(`{}`)
		err  error
	)
	switch in.Kind {
	case media.KindText:
		body, err = sjson.SetBytes(body, "inputText", in.Text)
	case media.KindImage:
		var b64 string
		if b64, err = a.imageBase64(ctx, in); err == nil {
			body, err = sjson.SetBytes(body, "inputImage", b64)
		}
	}
	if err != nil {
		return Call{}, apperrors.AsAPIError(err)
	}
	if body, err = a.finishBody(body, req); err != nil {
		return Call{}, err
	}
	return Call{ModelID: req.ModelID, Body: body, Indices: []int{in.Index}}, nil
}

// imageBase64 inlines image bytes; offloaded payloads are fetched back since
// this provider has no reference-based media source.
func (a *titanMultimodalAdapter) imageBase64(ctx context.Context, in *media.Resolved) (string, error) {
	data := in.Data
	if in.Ref != "" {
		var err error
		if data, err = a.resolver.Fetch(ctx, in.Ref); err != nil {
			return "", apperrors.AsAPIError(err)
		}
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (a *titanMultimodalAdapter) finishBody(body []byte, req *Request) ([]byte, error) {
	var err error
	if req.Dimensions > 0 {
		if body, err = sjson.SetBytes(body, "embeddingConfig.outputEmbeddingLength", req.Dimensions); err != nil {
			return nil, apperrors.AsAPIError(err)
		}
	}
	return mergeExtras(body, req.Extra)
}

func (a *titanMultimodalAdapter) ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error) {
	embedding := gjson.GetBytes(payload, "embedding")
	if !embedding.IsArray() {
		return nil, 0, apperrors.NewUpstream("Provider response is missing the embedding")
	}
	row := normalize.Row{Index: call.Indices[0], Vector: vectorOf(embedding)}
	tokens := int(gjson.GetBytes(payload, "inputTextTokenCount").Int())
	return []normalize.Row{row}, tokens, nil
}
