package errors

import "fmt"

// Error types used in the OpenAI error envelope.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeServerError    = "server_error"
)

// Error codes. An empty code serializes as JSON null.
const (
	CodeModelNotFound = "model_not_found"
)

// APIError is the single caller-facing error shape. Adapters and backends
// never build response bodies themselves; everything converges here.
type APIError struct {
	HTTPStatus int
	Type       string
	Code       string
	Param      string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.HTTPStatus, e.Type, e.Message)
}

// New builds an APIError from its parts.
func New(httpStatus int, errType, code, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Type: errType, Code: code, Message: message}
}

// NewInvalidRequest builds a 400 invalid_request_error with a null code.
func NewInvalidRequest(message string) *APIError {
	return &APIError{HTTPStatus: 400, Type: TypeInvalidRequest, Message: message}
}

// NewInvalidRequestf is NewInvalidRequest with formatting.
func NewInvalidRequestf(format string, args ...any) *APIError {
	return NewInvalidRequest(fmt.Sprintf(format, args...))
}

// NewModelNotFound builds the 404 error returned for unknown model ids.
func NewModelNotFound(model string) *APIError {
	return &APIError{
		HTTPStatus: 404,
		Type:       TypeInvalidRequest,
		Code:       CodeModelNotFound,
		Message:    fmt.Sprintf("The model `%s` does not exist or you do not have access to it.", model),
	}
}

// NewUnsupportedParameter builds the 400 error for a parameter that the
// resolved model cannot honor. The code stays null; only param is set.
func NewUnsupportedParameter(param, model string) *APIError {
	return &APIError{
		HTTPStatus: 400,
		Type:       TypeInvalidRequest,
		Param:      param,
		Message:    fmt.Sprintf("Unsupported parameter: '%s' is not supported by the model `%s`.", param, model),
	}
}

// NewUpstream builds the generic server-side failure. Timeouts and provider
// 5xx conditions are deliberately not distinguishable by the caller.
func NewUpstream(message string) *APIError {
	if message == "" {
		message = "Upstream provider error"
	}
	return &APIError{HTTPStatus: 502, Type: TypeServerError, Message: message}
}

// AsAPIError returns err as an *APIError, wrapping anything else as an
// upstream failure so raw provider payloads never leak.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewUpstream("Upstream provider error")
}
