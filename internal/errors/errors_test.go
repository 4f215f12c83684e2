package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidRequestEnvelopeHasNullCode(t *testing.T) {
	apiErr := NewInvalidRequest("input must not be empty")
	data, err := apiErr.ToJSON()
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	body := raw["error"]
	require.Equal(t, "input must not be empty", body["message"])
	require.Equal(t, TypeInvalidRequest, body["type"])
	require.Contains(t, body, "code")
	require.Nil(t, body["code"])
	require.Nil(t, body["param"])
}

func TestModelNotFoundShape(t *testing.T) {
	apiErr := NewModelNotFound("no-such-model")
	require.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	require.Equal(t, CodeModelNotFound, apiErr.Code)
	require.Contains(t, apiErr.Message, "`no-such-model`")

	data, err := apiErr.ToJSON()
	require.NoError(t, err)

	var env OpenAIEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.NotNil(t, env.Error.Code)
	require.Equal(t, CodeModelNotFound, *env.Error.Code)
}

func TestUnsupportedParameterCarriesParam(t *testing.T) {
	apiErr := NewUnsupportedParameter("dimensions", "amazon.titan-embed-text-v1")
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	require.Equal(t, "dimensions", apiErr.Param)
	require.Empty(t, apiErr.Code)

	data, err := apiErr.ToJSON()
	require.NoError(t, err)

	var env OpenAIEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.NotNil(t, env.Error.Param)
	require.Equal(t, "dimensions", *env.Error.Param)
	require.Nil(t, env.Error.Code)
}

func TestAsAPIErrorWrapsUnknownErrors(t *testing.T) {
	apiErr := AsAPIError(errors.New("connection reset by peer"))
	require.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	require.Equal(t, TypeServerError, apiErr.Type)
	require.NotContains(t, apiErr.Message, "connection reset")
}

func TestAsAPIErrorPassesThrough(t *testing.T) {
	original := NewModelNotFound("m")
	require.Same(t, original, AsAPIError(original))
	require.Nil(t, AsAPIError(nil))
}

func TestMapProviderErrorValidation(t *testing.T) {
	body := []byte(`{"message":"Malformed input request"}`)
	header := http.Header{"X-Amzn-Errortype": []string{"ValidationException:http://internal"}}

	apiErr := MapProviderError(http.StatusBadRequest, header, body)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	require.Equal(t, TypeInvalidRequest, apiErr.Type)
	require.Equal(t, "Malformed input request", apiErr.Message)
	require.Empty(t, apiErr.Code)
}

func TestMapProviderErrorTypeFromBody(t *testing.T) {
	body := []byte(`{"__type":"ResourceNotFoundException","message":"model missing"}`)

	apiErr := MapProviderError(http.StatusNotFound, http.Header{}, body)
	require.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	require.Equal(t, CodeModelNotFound, apiErr.Code)
	require.Equal(t, "model missing", apiErr.Message)
}

func TestMapProviderErrorServerSide(t *testing.T) {
	apiErr := MapProviderError(http.StatusInternalServerError, http.Header{}, []byte(`{"message":"boom"}`))
	require.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	require.Equal(t, TypeServerError, apiErr.Type)

	throttled := MapProviderError(http.StatusBadRequest, http.Header{"X-Amzn-Errortype": []string{"ThrottlingException"}}, nil)
	require.Equal(t, http.StatusTooManyRequests, throttled.HTTPStatus)
}
