package image

import (
	"context"

	"thumbgen/internal/domain"
	"thumbgen/internal/providers/google"
)

type imagenClient interface {
	GenerateImage(context.Context, string) (*google.ImageAsset, error)
	HasCredentials() bool
	Model() string
}

// ImagenGenerator serves the Google Imagen provider choice.
type ImagenGenerator struct {
	client imagenClient
}

// NewImagenGenerator wires a Google Imagen client.
func NewImagenGenerator(client imagenClient) *ImagenGenerator {
	return &ImagenGenerator{client: client}
}

func (g *ImagenGenerator) Provider() domain.ProviderChoice {
	return domain.ProviderImagen
}

// Generate fulfils the Generator interface. Imagen answers with inline bytes,
// which callers surface as a data URL.
func (g *ImagenGenerator) Generate(ctx context.Context, prompt string) (ImageRef, error) {
	if g == nil || g.client == nil || !g.client.HasCredentials() {
		return ImageRef{}, domain.NewGenerationError(domain.ProviderImagen, domain.ErrConfiguration, google.ErrMissingAPIKey)
	}
	asset, err := g.client.GenerateImage(ctx, prompt)
	if err != nil {
		return ImageRef{}, Classify(domain.ProviderImagen, err)
	}
	return ImageRef{MIME: normalizeFormat(asset.MIME), Data: asset.Data}, nil
}

func (g *ImagenGenerator) String() string {
	if g == nil || g.client == nil {
		return "imagen"
	}
	return g.client.Model()
}

var _ Generator = (*ImagenGenerator)(nil)
