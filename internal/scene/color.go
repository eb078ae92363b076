package scene

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mazznoer/csscolorparser"

	"thumbgen/internal/domain"
)

// ParseColor accepts any CSS color: hex, rgb(), hsl(), hwb() and named colors.
func ParseColor(raw string) (color.NRGBA, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return color.NRGBA{}, invalidColor(raw)
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q: %v", domain.ErrInvalidPatch, raw, err)
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

func invalidColor(raw string) error {
	return fmt.Errorf("%w: color %q", domain.ErrInvalidPatch, raw)
}
