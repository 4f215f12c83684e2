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

// Inline limits for the Nova synchronous embedding task. Text above
// novaTextInlineLimit is offloaded to the object store; video and audio go
// through the segmented task which may return several rows.
const (
	novaTextInlineLimit = 8192
	defaultPurpose      = "GENERIC_INDEX"
)

// Keys the adapter owns inside a media object; per-media extras must not
// override them.
var novaReservedKeys = map[string]bool{"source": true, "format": true, "value": true}

// Synchronous-invoke size limits per media type. Referenced media above
// these goes through the segmented task.
var novaSyncLimits = map[media.Kind]int{
	media.KindText:  50_000,
	media.KindImage: 50_000_000,
	media.KindVideo: 100_000_000,
	media.KindAudio: 100_000_000,
}

// novaAdapter issues one call per input using the Nova multimodal embedding
// task envelope.
type novaAdapter struct {
	resolver *media.Resolver
}

func (a *novaAdapter) BuildCalls(ctx context.Context, req *Request) ([]Call, error) {
	calls := make([]Call, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		body, err := a.buildBody(ctx, req, in)
		if err != nil {
			return nil, err
		}
		calls = append(calls, Call{ModelID: req.ModelID, Body: body, Indices: []int{in.Index}})
	}
	return calls, nil
}

// segmented picks the task type. Inline media always fits the synchronous
// task; referenced media segments above the per-type limit, or when the size
// is unknown (caller-supplied references), since the segmented task accepts
// any size.
func segmented(in *media.Resolved) bool {
	if in.Kind == media.KindText {
		return len(in.Text) > novaSyncLimits[media.KindText]
	}
	if in.Ref == "" {
		return false
	}
	return in.Size == 0 || in.Size > novaSyncLimits[in.Kind]
}

func (a *novaAdapter) buildBody(ctx context.Context, req *Request, in *media.Resolved) ([]byte, error) {
	taskType, paramsKey := "SINGLE_EMBEDDING", "singleEmbeddingParams"
	if segmented(in) {
		taskType, paramsKey = "SEGMENTED_EMBEDDING", "segmentedEmbeddingParams"
	}

	body, err := sjson.SetBytes([]byte(`{}`), "taskType", taskType)
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}

	purpose := defaultPurpose
	if v, ok := req.Extra["embeddingPurpose"].(string); ok && v != "" {
		purpose = v
	}
	if body, err = sjson.SetBytes(body, paramsKey+".embeddingPurpose", purpose); err != nil {
		return nil, apperrors.AsAPIError(err)
	}
	if req.Dimensions > 0 {
		if body, err = sjson.SetBytes(body, paramsKey+".embeddingDimension", req.Dimensions); err != nil {
			return nil, apperrors.AsAPIError(err)
		}
	}

	mediaKey := paramsKey + "." + string(in.Kind)
	switch {
	case in.Kind == media.KindText:
		body, err = a.setText(ctx, body, mediaKey, in.Text)
	case in.Ref != "":
		if body, err = sjson.SetBytes(body, mediaKey+".format", in.Format); err == nil {
			body, err = sjson.SetBytes(body, mediaKey+".source.s3Location.uri", in.Ref)
		}
	default:
		if body, err = sjson.SetBytes(body, mediaKey+".format", in.Format); err == nil {
			body, err = sjson.SetBytes(body, mediaKey+".source.bytes", base64.StdEncoding.EncodeToString(in.Data))
		}
	}
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}

	return a.mergeMediaExtras(body, mediaKey, req.Extra, string(in.Kind))
}

func (a *novaAdapter) setText(ctx context.Context, body []byte, mediaKey, text string) ([]byte, error) {
	if len(text) <= novaTextInlineLimit {
		return sjson.SetBytes(body, mediaKey+".value", text)
	}
	ref, err := a.resolver.Offload(ctx, []byte(text), "text/plain", ".txt")
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, mediaKey+".source.s3Location.uri", ref)
}

// mergeMediaExtras merges the extra mapping keyed by media type into the
// media object, dropping the reserved keys the adapter already set.
func (a *novaAdapter) mergeMediaExtras(body []byte, mediaKey string, extra map[string]any, kind string) ([]byte, error) {
	raw, ok := extra[kind]
	if !ok {
		return body, nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.NewInvalidRequestf("Invalid extra parameter '%s': expected an object", kind)
	}
	var err error
	for key, value := range fields {
		if novaReservedKeys[key] {
			continue
		}
		if body, err = sjson.SetBytes(body, mediaKey+"."+key, value); err != nil {
			return nil, apperrors.NewInvalidRequestf("Invalid extra parameter '%s.%s'", kind, key)
		}
	}
	return body, nil
}

func (a *novaAdapter) ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error) {
	embeddings := gjson.GetBytes(payload, "embeddings")
	if !embeddings.IsArray() {
		return nil, 0, apperrors.NewUpstream("Provider response is missing the embeddings")
	}
	entries := embeddings.Array()
	if len(entries) == 0 {
		return nil, 0, apperrors.NewUpstream("Provider returned no embeddings")
	}

	rows := make([]normalize.Row, 0, len(entries))
	for sub, entry := range entries {
		row := normalize.Row{
			Index:  call.Indices[0],
			Sub:    sub,
			Vector: vectorOf(entry.Get("embedding")),
		}
		if start := entry.Get("startSec"); start.Exists() {
			row.Segment = true
			row.StartSec = start.Float()
			row.EndSec = entry.Get("endSec").Float()
		}
		rows = append(rows, row)
	}
	return rows, 0, nil
}
