package image

import (
	"context"
	"errors"
	"strings"

	"thumbgen/internal/domain"
)

// Registry resolves a ProviderChoice to its Generator.
type Registry struct {
	generators map[domain.ProviderChoice]Generator
}

// NewRegistry indexes the given generators by provider.
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[domain.ProviderChoice]Generator, len(gens))}
	for _, g := range gens {
		if g != nil {
			r.generators[g.Provider()] = g
		}
	}
	return r
}

// Generate invokes the selected provider exactly once. Every failure is
// returned as a *domain.GenerationError.
func (r *Registry) Generate(ctx context.Context, provider domain.ProviderChoice, prompt string) (ImageRef, error) {
	if provider == "" {
		provider = domain.ProviderOpenAI
	}
	if strings.TrimSpace(prompt) == "" {
		return ImageRef{}, domain.NewGenerationError(provider, domain.ErrValidation, errors.New("prompt is required"))
	}
	g, ok := r.generators[provider]
	if !ok {
		return ImageRef{}, domain.NewGenerationError(provider, domain.ErrConfiguration, errors.New("provider not registered"))
	}
	ref, err := g.Generate(ctx, prompt)
	if err != nil {
		return ImageRef{}, Classify(provider, err)
	}
	if ref.IsZero() {
		return ImageRef{}, domain.NewGenerationError(provider, domain.ErrProvider, errors.New("response contained no image data"))
	}
	return ref, nil
}

// Classify keeps an existing classification or derives one from the
// sentinel the client wrapped. Unclassified errors count as transport
// failures.
func Classify(provider domain.ProviderChoice, err error) error {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	for _, kind := range []error{domain.ErrConfiguration, domain.ErrProvider, domain.ErrNetwork, domain.ErrValidation} {
		if errors.Is(err, kind) {
			return domain.NewGenerationError(provider, kind, err)
		}
	}
	return domain.NewGenerationError(provider, domain.ErrNetwork, err)
}
