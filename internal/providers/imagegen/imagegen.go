package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/sync/errgroup"

	"stdapi-go/internal/bedrock"
	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/registry"
)

// Request is one image generation invocation after front-door parsing.
// Quality and Style carry the caller's values; normalization to provider
// vocabulary happens inside the adapters.
type Request struct {
	ModelID      string
	Cap          *registry.Capability
	Prompt       string
	N            int
	Width        int
	Height       int
	Quality      string
	Style        string
	OutputFormat string
	Extra        map[string]any
}

// Call is one outbound provider invocation producing Count images.
type Call struct {
	ModelID string
	Body    []byte
	Count   int
}

// Adapter builds native bodies and decodes native responses for one image
// provider family.
type Adapter interface {
	BuildCalls(req *Request) ([]Call, error)

	// ParseResponse returns the raw image bytes of one call.
	ParseResponse(req *Request, call Call, payload []byte) ([][]byte, error)

	// NativeFormat is the container the provider emits for this request.
	NativeFormat(req *Request) string
}

func adapterFor(cap *registry.Capability) (Adapter, error) {
	switch cap.Family {
	case registry.FamilyNovaCanvas, registry.FamilyTitanImage:
		return &amazonAdapter{}, nil
	case registry.FamilyStability:
		return &stabilityAdapter{}, nil
	default:
		return nil, fmt.Errorf("no image adapter for family %s", cap.Family)
	}
}

// NormalizeQuality folds the OpenAI quality vocabulary onto the two-level
// provider one.
func NormalizeQuality(quality string) (string, error) {
	switch quality {
	case "", "standard", "low", "medium", "auto":
		return "standard", nil
	case "hd", "high", "premium":
		return "premium", nil
	default:
		return "", apperrors.NewInvalidRequestf("Invalid 'quality': %s.", quality)
	}
}

func checkCapabilities(req *Request) error {
	if req.Quality != "" && !req.Cap.SupportsQuality {
		return apperrors.NewUnsupportedParameter("quality", req.Cap.ModelID)
	}
	if req.Style != "" && !req.Cap.SupportsStyle {
		return apperrors.NewUnsupportedParameter("style", req.Cap.ModelID)
	}
	return nil
}

// Runner fans image calls out concurrently and joins the generated images in
// call order. One failure fails the whole request.
type Runner struct {
	invoker     bedrock.Invoker
	concurrency int
}

func NewRunner(invoker bedrock.Invoker, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Runner{invoker: invoker, concurrency: concurrency}
}

// Generate returns the raw image bytes plus the provider's native container
// format.
func (r *Runner) Generate(ctx context.Context, req *Request) ([][]byte, string, error) {
	if req.N <= 0 {
		req.N = 1
	}
	if err := checkCapabilities(req); err != nil {
		return nil, "", err
	}

	adapter, err := adapterFor(req.Cap)
	if err != nil {
		return nil, "", apperrors.AsAPIError(err)
	}

	calls, err := adapter.BuildCalls(req)
	if err != nil {
		return nil, "", err
	}

	images := make([][][]byte, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range calls {
		i := i
		g.Go(func() error {
			payload, err := r.invoker.Invoke(gctx, calls[i].ModelID, calls[i].Body)
			if err != nil {
				return err
			}
			decoded, err := adapter.ParseResponse(req, calls[i], payload)
			if err != nil {
				return err
			}
			images[i] = decoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	var out [][]byte
	for _, batch := range images {
		out = append(out, batch...)
	}
	return out, adapter.NativeFormat(req), nil
}

func decodeImages(encoded []string) ([][]byte, error) {
	out := make([][]byte, len(encoded))
	for i, b64 := range encoded {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, apperrors.NewUpstream("Provider returned a corrupt image payload")
		}
		out[i] = data
	}
	return out, nil
}
