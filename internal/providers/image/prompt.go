package image

import (
	"strings"

	"thumbgen/internal/domain"
)

// Closing instructions appended to every prompt.
const (
	closingQuality = "Make it high-resolution, with dynamic composition and bold text."
	closingFormat  = "The thumbnail should be eye-catching and professional, optimized for YouTube's 16:9 format."
)

// BuildThumbnailPrompt converts the structured request into a natural language
// instruction. The title is interpolated verbatim; every optional field adds
// its clause only when it carries text.
func BuildThumbnailPrompt(req domain.GenerationRequest) string {
	lines := []string{
		`Create a YouTube thumbnail for a video titled "` + req.Title + `".`,
	}

	if subtitle := strings.TrimSpace(req.Subtitle); subtitle != "" {
		lines = append(lines, `Subtitle: "`+subtitle+`".`)
	}

	if keywords := req.CleanKeywords(); len(keywords) > 0 {
		lines = append(lines, "Include elements related to: "+strings.Join(keywords, ", ")+".")
	}

	if palette := strings.TrimSpace(req.ColorPalette); palette != "" {
		lines = append(lines, "Use this color palette: "+palette+".")
	}

	if style := strings.TrimSpace(req.Style); style != "" {
		lines = append(lines, "Style: "+style+".")
	}

	lines = append(lines, closingQuality, closingFormat)
	return strings.Join(lines, "\n")
}
