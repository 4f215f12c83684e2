package embedding

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stdapi-go/internal/bedrock"
	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/media"
	"stdapi-go/internal/normalize"
	"stdapi-go/internal/registry"
)

// Dispatcher fans a request out over the adapter's provider calls and joins
// the rows in caller order. One failed call fails the whole batch; there are
// no partial results.
type Dispatcher struct {
	invoker     bedrock.Invoker
	resolver    *media.Resolver
	concurrency int
}

func NewDispatcher(invoker bedrock.Invoker, resolver *media.Resolver, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Dispatcher{invoker: invoker, resolver: resolver, concurrency: concurrency}
}

// Embed runs the full adapter pipeline: policy checks, call building,
// concurrent dispatch, parse, ordered assembly. Returns rows plus the summed
// provider-reported prompt tokens.
func (d *Dispatcher) Embed(ctx context.Context, req *Request) ([]normalize.Row, int, error) {
	if err := checkDimensions(req); err != nil {
		return nil, 0, err
	}
	if err := checkModalities(req); err != nil {
		return nil, 0, err
	}

	adapter, err := adapterFor(req.Cap, d.resolver)
	if err != nil {
		return nil, 0, apperrors.AsAPIError(err)
	}

	calls, err := adapter.BuildCalls(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	type result struct {
		rows   []normalize.Row
		tokens int
	}
	results := make([]result, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range calls {
		i := i
		g.Go(func() error {
			payload, err := d.invoker.Invoke(gctx, calls[i].ModelID, calls[i].Body)
			if err != nil {
				return err
			}
			rows, tokens, err := adapter.ParseResponse(req, calls[i], payload)
			if err != nil {
				return err
			}
			results[i] = result{rows: rows, tokens: tokens}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var assembler normalize.Assembler
	tokens := 0
	for _, res := range results {
		assembler.Add(res.rows...)
		tokens += res.tokens
	}
	rows := assembler.Rows()

	// Arbitrary-dimension models promise the provider honors the value;
	// verify the response instead of trusting it.
	if req.Cap.Dimensions == registry.DimensionsArbitrary && req.Dimensions > 0 {
		for _, row := range rows {
			if len(row.Vector) != req.Dimensions {
				return nil, 0, apperrors.NewUpstream("Provider returned a vector of unexpected length")
			}
		}
	}

	return rows, tokens, nil
}
