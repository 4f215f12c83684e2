package embedding

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "stdapi-go/internal/errors"
)

// vectorOf converts a JSON array result into a float32 vector.
func vectorOf(res gjson.Result) []float32 {
	arr := res.Array()
	out := make([]float32, len(arr))
	for i, v := range arr {
		out[i] = float32(v.Float())
	}
	return out
}

// mergeExtras copies extra parameters into the native body verbatim, skipping
// keys the adapter consumed itself.
func mergeExtras(body []byte, extra map[string]any, skip ...string) ([]byte, error) {
	for key, value := range extra {
		skipped := false
		for _, s := range skip {
			if key == s {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		var err error
		body, err = sjson.SetBytes(body, key, value)
		if err != nil {
			return nil, apperrors.NewInvalidRequestf("Invalid extra parameter '%s'", key)
		}
	}
	return body, nil
}
