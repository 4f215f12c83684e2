package bedrock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stdapi-go/internal/config"
	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/monitoring/tracing"
)

// Invoker is the single call surface the provider adapters depend on.
type Invoker interface {
	Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

// Client talks to a Bedrock-runtime-shaped HTTP endpoint:
// POST {base}/model/{modelID}/invoke with a JSON body.
type Client struct {
	endpoint string
	region   string
	timeout  time.Duration
	cli      *http.Client
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func New(cfg *config.FileConfig) *Client {
	dialTO := durationOrDefault(cfg.DialTimeoutSec, 10*time.Second)
	tlsTO := durationOrDefault(cfg.TLSHandshakeTimeoutSec, 10*time.Second)
	hdrTO := durationOrDefault(cfg.ResponseHeaderTimeoutSec, 120*time.Second)

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTO,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsTO,
		ResponseHeaderTimeout: hdrTO,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.BedrockEndpoint, "/"),
		region:   cfg.BedrockRegion,
		timeout:  durationOrDefault(cfg.InvokeTimeoutSec, 120*time.Second),
		cli:      &http.Client{Transport: tr, Timeout: 0},
	}
}

// Invoke posts the native body to the model endpoint and returns the raw
// response payload. Failures come back as *errors.APIError; nothing here is
// retried, deterministic validation errors map to 4xx and everything else to
// a generic upstream failure.
func (c *Client) Invoke(ctx context.Context, modelID string, body []byte) (payload []byte, err error) {
	spanCtx, span := tracing.StartClientSpan(ctx, "bedrock", "Bedrock.Invoke",
		trace.WithAttributes(
			attribute.String("bedrock.model_id", modelID),
			attribute.Int("bedrock.request_bytes", len(body)),
		))
	defer func() { tracing.FinishSpan(span, err) }()

	callCtx, cancel := context.WithTimeout(spanCtx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, url.PathEscape(modelID))
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewUpstream("Failed to build provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("Provider request failed")
	}
	defer resp.Body.Close()

	payload, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstream("Failed to read provider response")
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.MapProviderError(resp.StatusCode, resp.Header, payload)
	}
	return payload, nil
}
