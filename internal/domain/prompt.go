package domain

import (
	"strings"
)

// ProviderChoice selects the image-generation backend.
type ProviderChoice string

const (
	ProviderOpenAI ProviderChoice = "openai"
	ProviderImagen ProviderChoice = "imagen"
)

// Providers lists every supported provider in display order.
var Providers = []ProviderChoice{ProviderOpenAI, ProviderImagen}

// ParseProvider normalizes free-form input into a ProviderChoice. An empty
// value falls back to OpenAI, matching the default form selection.
func ParseProvider(raw string) (ProviderChoice, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ProviderOpenAI):
		return ProviderOpenAI, nil
	case string(ProviderImagen), "google":
		return ProviderImagen, nil
	default:
		return "", ValidationError("unsupported provider %q", raw)
	}
}

// DisplayName is the vendor-facing label used in user messages.
func (p ProviderChoice) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderImagen:
		return "Google Imagen"
	default:
		return string(p)
	}
}

// GenerationRequest is the structured user input turned into a prompt.
type GenerationRequest struct {
	Title        string         `json:"title"`
	Subtitle     string         `json:"subtitle,omitempty"`
	Keywords     []string       `json:"keywords,omitempty"`
	ColorPalette string         `json:"colorPalette,omitempty"`
	Style        string         `json:"style,omitempty"`
	Provider     ProviderChoice `json:"provider,omitempty"`
}

// Validate rejects requests that must never reach a provider.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ValidationError("title is required")
	}
	switch r.Provider {
	case "", ProviderOpenAI, ProviderImagen:
	default:
		return ValidationError("unsupported provider %q", r.Provider)
	}
	return nil
}

// CleanKeywords trims keywords and drops blanks.
func (r GenerationRequest) CleanKeywords() []string {
	out := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// SplitKeywords parses the comma-separated keyword field of the form.
func SplitKeywords(input string) []string {
	return GenerationRequest{Keywords: strings.Split(input, ",")}.CleanKeywords()
}
