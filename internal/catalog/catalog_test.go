package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(t *testing.T, query string) []string {
	t.Helper()
	var out []string
	for _, tpl := range Search(query) {
		out = append(out, tpl.Title)
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Gaming Thumbnail", "Tech Review", "Tutorial Style", "Vlog Thumbnail", "Music Video", "Retro Style"}},
		{"  ", []string{"Gaming Thumbnail", "Tech Review", "Tutorial Style", "Vlog Thumbnail", "Music Video", "Retro Style"}},
		{"GAMING", []string{"Gaming Thumbnail"}},
		{"vintage", []string{"Retro Style"}},
		{"tutorials", []string{"Tutorial Style"}},
		{"style", []string{"Tutorial Style", "Retro Style"}},
		{"step-by", []string{"Tutorial Style"}},
		{"podcast", nil},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(t, tc.query))
		})
	}
}

func TestSearchReturnsCopies(t *testing.T) {
	first := Search("gaming")
	require.Len(t, first, 1)
	first[0].Keywords[0] = "mutated"

	again, ok := Get(1)
	require.True(t, ok)
	assert.Equal(t, "Gaming", again.Keywords[0])
}

func TestTemplateRequestPrefill(t *testing.T) {
	tpl, ok := Get(6)
	require.True(t, ok)

	req := tpl.Request()
	assert.Equal(t, "Retro Style", req.Title)
	assert.Equal(t, []string{"Retro", "Vintage", "Nostalgic"}, req.Keywords)
	assert.Equal(t, "Faded colors, sepia tones", req.ColorPalette)
	assert.Equal(t, "Retro", req.Style)
	assert.Empty(t, req.Subtitle)
	require.NoError(t, req.Validate())

	_, ok = Get(99)
	assert.False(t, ok)
}
