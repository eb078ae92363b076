package editor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"thumbgen/internal/domain"
	providerimage "thumbgen/internal/providers/image"
)

func compareProviders(ctx context.Context, gen ImageGenerator, req domain.GenerationRequest) (CompareResult, error) {
	prompt := providerimage.BuildThumbnailPrompt(req)
	result := make(CompareResult, len(domain.Providers))
	var mu sync.Mutex

	// No derived context: one provider failing must not cancel the other.
	var g errgroup.Group
	for _, provider := range domain.Providers {
		g.Go(func() error {
			ref, err := gen.Generate(ctx, provider, prompt)
			outcome := CompareOutcome{ImageURL: ref.Href()}
			if err != nil {
				outcome = CompareOutcome{Error: failureMessage(provider, err), Err: err}
			}
			mu.Lock()
			result[provider] = outcome
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
