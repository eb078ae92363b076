package image

import (
	"context"

	"thumbgen/internal/domain"
	"thumbgen/internal/providers/openai"
)

type openAIImageClient interface {
	GenerateImage(context.Context, string) (*openai.ImageAsset, error)
	HasCredentials() bool
	Model() string
}

// DalleGenerator serves the OpenAI provider choice.
type DalleGenerator struct {
	client openAIImageClient
}

// NewDalleGenerator wires an OpenAI images client.
func NewDalleGenerator(client openAIImageClient) *DalleGenerator {
	return &DalleGenerator{client: client}
}

func (g *DalleGenerator) Provider() domain.ProviderChoice {
	return domain.ProviderOpenAI
}

// Generate fulfils the Generator interface. Missing credentials are reported
// before the client is touched.
func (g *DalleGenerator) Generate(ctx context.Context, prompt string) (ImageRef, error) {
	if g == nil || g.client == nil || !g.client.HasCredentials() {
		return ImageRef{}, domain.NewGenerationError(domain.ProviderOpenAI, domain.ErrConfiguration, openai.ErrMissingAPIKey)
	}
	asset, err := g.client.GenerateImage(ctx, prompt)
	if err != nil {
		return ImageRef{}, Classify(domain.ProviderOpenAI, err)
	}
	return ImageRef{
		URL:           asset.URL,
		MIME:          asset.MIME,
		Data:          asset.Data,
		RevisedPrompt: asset.RevisedPrompt,
	}, nil
}

func (g *DalleGenerator) String() string {
	if g == nil || g.client == nil {
		return "openai"
	}
	return g.client.Model()
}

var _ Generator = (*DalleGenerator)(nil)
