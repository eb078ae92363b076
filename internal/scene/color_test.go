package scene

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbgen/internal/domain"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}},
		{"#000", color.NRGBA{0, 0, 0, 255}},
		{"#3b82f6", color.NRGBA{0x3b, 0x82, 0xf6, 255}},
		{"#ff000080", color.NRGBA{255, 0, 0, 0x80}},
		{"rgba(0,0,0,0.5)", color.NRGBA{0, 0, 0, 128}},
		{"rgba(255, 255, 255, 0.5)", color.NRGBA{255, 255, 255, 128}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{" White ", color.NRGBA{255, 255, 255, 255}},
		{"transparent", color.NRGBA{}},
		{"navy", color.NRGBA{0, 0, 128, 255}},
		{"gold", color.NRGBA{255, 215, 0, 255}},
		{"hsl(0, 100%, 50%)", color.NRGBA{255, 0, 0, 255}},
		{"hsla(120, 100%, 50%, 0.5)", color.NRGBA{0, 255, 0, 128}},
		{"rgba(0,0,0,50%)", color.NRGBA{0, 0, 0, 128}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseColorRejects(t *testing.T) {
	for _, in := range []string{"", "#12", "#gggggg", "rgb(1,2)", "chartreuse-ish", "hsl(0, 100%)", "   "} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, domain.ErrInvalidPatch, in)
	}
}
