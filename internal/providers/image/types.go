package image

import (
	"context"
	"encoding/base64"
	"strings"

	"thumbgen/internal/domain"
)

// ImageRef points at a generated image: either a remote URL or inline bytes.
type ImageRef struct {
	URL           string
	MIME          string
	Data          []byte
	RevisedPrompt string
}

// IsZero reports whether the reference carries no image at all.
func (r ImageRef) IsZero() bool {
	return strings.TrimSpace(r.URL) == "" && len(r.Data) == 0
}

// Href returns a URL usable by a client: the remote URL, or a data URL for
// inline bytes.
func (r ImageRef) Href() string {
	if len(r.Data) > 0 {
		mime := normalizeFormat(r.MIME)
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
	}
	return r.URL
}

// Generator is the contract implemented by every image provider.
type Generator interface {
	Provider() domain.ProviderChoice
	Generate(ctx context.Context, prompt string) (ImageRef, error)
}

func normalizeFormat(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch mime {
	case "image/jpeg", "image/jpg":
		return "image/jpeg"
	case "image/png":
		return "image/png"
	default:
		if strings.HasPrefix(mime, "image/") {
			return mime
		}
		return "image/png"
	}
}
