package translate

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stdapi-go/internal/config"
	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/monitoring/tracing"
)

const translateTarget = "AWSShineFrontendService_20170701.TranslateText"

// Translator converts text between language codes.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Client speaks the AWS Translate JSON wire protocol.
type Client struct {
	endpoint string
	cli      *http.Client
}

func New(cfg *config.FileConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.TranslateEndpoint, "/"),
		cli: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Translate returns text converted to targetLang. Text already in the target
// language passes through without a backend call.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	source := baseLanguage(sourceLang)
	target := baseLanguage(targetLang)
	if source == "" {
		source = "auto"
	}
	if source == target {
		return text, nil
	}

	ctx, span := tracing.StartClientSpan(ctx, "translate", "Translate.TranslateText",
		trace.WithAttributes(
			attribute.String("translate.source", source),
			attribute.String("translate.target", target),
		))
	defer span.End()

	body := []byte(`{}`)
	body, _ = sjson.SetBytes(body, "Text", text)
	body, _ = sjson.SetBytes(body, "SourceLanguageCode", source)
	body, _ = sjson.SetBytes(body, "TargetLanguageCode", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewUpstream("Translation backend request could not be built")
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", translateTarget)

	resp, err := c.cli.Do(req)
	if err != nil {
		return "", apperrors.NewUpstream("Translation backend is unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewUpstream("Translation backend response could not be read")
	}
	if resp.StatusCode != http.StatusOK {
		return "", mapTranslateError(resp, payload, source, target)
	}

	translated := gjson.GetBytes(payload, "TranslatedText")
	if !translated.Exists() {
		return "", apperrors.NewUpstream("Translation backend returned no text")
	}
	return translated.String(), nil
}

func mapTranslateError(resp *http.Response, payload []byte, source, target string) error {
	code := resp.Header.Get("X-Amzn-Errortype")
	if idx := strings.Index(code, ":"); idx >= 0 {
		code = code[:idx]
	}
	if code == "" {
		code = gjson.GetBytes(payload, "__type").String()
	}
	if code == "UnsupportedLanguagePairException" {
		return apperrors.NewInvalidRequestf(
			"Translation from '%s' to '%s' is not supported.", source, target)
	}
	return apperrors.MapProviderError(resp.StatusCode, resp.Header, payload)
}

// baseLanguage reduces a locale tag such as en-US to its language part.
func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	return code
}
