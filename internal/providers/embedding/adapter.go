package embedding

import (
	"context"
	"fmt"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/media"
	"stdapi-go/internal/normalize"
	"stdapi-go/internal/registry"
)

// Request is one embeddings invocation after front-door parsing and media
// resolution. ModelID keeps any region prefix the caller supplied; Cap is the
// resolved capability entry.
type Request struct {
	ModelID    string
	Cap        *registry.Capability
	Inputs     []*media.Resolved
	Dimensions int
	Extra      map[string]any
}

// Call is one outbound provider invocation. Indices lists the source input
// positions the call covers, in order.
type Call struct {
	ModelID string
	Body    []byte
	Indices []int
}

// Adapter builds native call bodies and parses native responses for one
// provider family. Policy violations surface from BuildCalls before any
// network traffic.
type Adapter interface {
	BuildCalls(ctx context.Context, req *Request) ([]Call, error)

	// ParseResponse returns the normalized rows plus the provider-reported
	// prompt token count (0 when the provider does not report one).
	ParseResponse(req *Request, call Call, payload []byte) ([]normalize.Row, int, error)
}

// adapterFor selects the adapter variant for a capability entry.
func adapterFor(cap *registry.Capability, resolver *media.Resolver) (Adapter, error) {
	switch cap.Family {
	case registry.FamilyTitanText:
		return &titanTextAdapter{}, nil
	case registry.FamilyTitanMultimodal:
		return &titanMultimodalAdapter{resolver: resolver}, nil
	case registry.FamilyCohere:
		return &cohereAdapter{resolver: resolver}, nil
	case registry.FamilyMarengo:
		return &marengoAdapter{}, nil
	case registry.FamilyNova:
		return &novaAdapter{resolver: resolver}, nil
	default:
		return nil, fmt.Errorf("no embedding adapter for family %s", cap.Family)
	}
}

// checkDimensions enforces the per-model dimension policy before dispatch.
func checkDimensions(req *Request) error {
	if req.Dimensions == 0 {
		return nil
	}
	switch req.Cap.Dimensions {
	case registry.DimensionsNone:
		return apperrors.NewUnsupportedParameter("dimensions", req.Cap.ModelID)
	case registry.DimensionsFixedSet:
		if !req.Cap.AllowsDimension(req.Dimensions) {
			return apperrors.NewInvalidRequestf(
				"Invalid 'dimensions': %d is not supported by the model `%s`; supported values: %v.",
				req.Dimensions, req.Cap.ModelID, req.Cap.AllowedDimensions)
		}
	case registry.DimensionsArbitrary:
		if req.Dimensions < 1 {
			return apperrors.NewInvalidRequest("Invalid 'dimensions': must be a positive integer.")
		}
	}
	return nil
}

// checkModalities rejects inputs the model cannot embed.
func checkModalities(req *Request) error {
	for _, in := range req.Inputs {
		var m registry.Modality
		switch in.Kind {
		case media.KindText:
			m = registry.ModalityText
		case media.KindImage:
			m = registry.ModalityImage
		case media.KindVideo:
			m = registry.ModalityVideo
		case media.KindAudio:
			m = registry.ModalityAudio
		}
		if !req.Cap.SupportsModality(m) {
			return apperrors.NewInvalidRequestf(
				"The model `%s` does not accept %s input (at index %d).", req.Cap.ModelID, m, in.Index)
		}
	}
	return nil
}
