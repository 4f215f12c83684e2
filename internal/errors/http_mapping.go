package errors

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// providerMessage extracts a human-readable message from a native provider
// error payload without exposing the raw body to the caller.
func providerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	for _, path := range []string{"message", "Message", "error.message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// providerCode extracts the native exception type, if present.
func providerCode(header http.Header, body []byte) string {
	if code := header.Get("X-Amzn-Errortype"); code != "" {
		// Header value may carry a trailing ":http-uri" suffix.
		for i := 0; i < len(code); i++ {
			if code[i] == ':' {
				return code[:i]
			}
		}
		return code
	}
	return gjson.GetBytes(body, "__type").String()
}

// MapProviderError translates a native provider failure into the caller-facing
// taxonomy: deterministic validation outcomes become 400/404 client errors,
// everything else surfaces as a generic upstream failure. Never retried here.
func MapProviderError(statusCode int, header http.Header, body []byte) *APIError {
	msg := providerMessage(body)
	code := providerCode(header, body)

	switch code {
	case "ValidationException":
		if msg == "" {
			msg = "Invalid request for the selected model"
		}
		return NewInvalidRequest(msg)
	case "ResourceNotFoundException":
		return New(http.StatusNotFound, TypeInvalidRequest, CodeModelNotFound, firstNonEmpty(msg, "Model not found"))
	case "AccessDeniedException":
		return New(http.StatusForbidden, "permission_error", "", firstNonEmpty(msg, "Access denied by the provider"))
	case "ThrottlingException":
		return New(http.StatusTooManyRequests, "rate_limit_error", "rate_limit_exceeded", firstNonEmpty(msg, "Provider rate limit exceeded"))
	case "ServiceUnavailableException", "ModelNotReadyException":
		return New(http.StatusServiceUnavailable, TypeServerError, "", firstNonEmpty(msg, "Model temporarily unavailable"))
	}

	if statusCode >= 400 && statusCode < 500 {
		return NewInvalidRequest(firstNonEmpty(msg, "Invalid request for the selected model"))
	}
	return NewUpstream(firstNonEmpty(msg, "Upstream provider error"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
