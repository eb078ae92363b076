package editor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"thumbgen/internal/domain"
)

// ImageInfo describes decoded image bytes.
type ImageInfo struct {
	Width  int
	Height int
	MIME   string
}

// DecodeImage reads the header of png, jpeg, gif or webp bytes.
func DecodeImage(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, domain.ValidationError("image is empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: unsupported or corrupt image: %v", domain.ErrValidation, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, domain.ValidationError("image has no pixels")
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, MIME: "image/" + format}, nil
}
