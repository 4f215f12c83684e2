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

// marengoAdapter issues one call per input. Video responses legitimately
// carry several entries, one per detected segment.
type marengoAdapter struct{}

func (a *marengoAdapter) BuildCalls(ctx context.Context, req *Request) ([]Call, error) {
	calls := make([]Call, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		body, err := a.buildBody(req, in)
		if err != nil {
			return nil, err
		}
		calls = append(calls, Call{ModelID: req.ModelID, Body: body, Indices: []int{in.Index}})
	}
	return calls, nil
}

func (a *marengoAdapter) buildBody(req *Request, in *media.Resolved) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "inputType", string(in.Kind))
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}

	switch {
	case in.Kind == media.KindText:
		body, err = sjson.SetBytes(body, "inputText", in.Text)
	case in.Ref != "":
		body, err = sjson.SetBytes(body, "mediaSource.s3Location.uri", in.Ref)
	default:
		body, err = sjson.SetBytes(body, "mediaSource.base64String", base64.StdEncoding.EncodeToString(in.Data))
	}
	if err != nil {
		return nil, apperrors.AsAPIError(err)
	}

	return mergeExtras(body, req.Extra)
}

func (a *marengoAdapter) ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error) {
	data := gjson.GetBytes(payload, "data")
	if !data.IsArray() {
		return nil, 0, apperrors.NewUpstream("Provider response is missing the embedding data")
	}
	entries := data.Array()
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
