// Package catalog holds the built-in thumbnail presets.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"thumbgen/internal/domain"
)

var templates = []domain.Template{
	{
		ID:           1,
		Title:        "Gaming Thumbnail",
		Description:  "Perfect for gaming videos and streams",
		Image:        "https://placehold.co/600x340/3b82f6/ffffff?text=Gaming+Thumbnail",
		Keywords:     []string{"Gaming", "Action", "Vibrant"},
		Style:        "3D Render",
		ColorPalette: "Dark with neon accents",
	},
	{
		ID:           2,
		Title:        "Tech Review",
		Description:  "Clean and professional for tech reviews",
		Image:        "https://placehold.co/600x340/10b981/ffffff?text=Tech+Review",
		Keywords:     []string{"Tech", "Minimal", "Professional"},
		Style:        "Minimalist",
		ColorPalette: "White, black, and blue",
	},
	{
		ID:           3,
		Title:        "Tutorial Style",
		Description:  "Clear and instructional for tutorials",
		Image:        "https://placehold.co/600x340/f59e0b/ffffff?text=Tutorial+Style",
		Keywords:     []string{"Tutorial", "Educational", "Step-by-step"},
		Style:        "Cartoon",
		ColorPalette: "Bright and colorful",
	},
	{
		ID:           4,
		Title:        "Vlog Thumbnail",
		Description:  "Personal and engaging for vlogs",
		Image:        "https://placehold.co/600x340/ec4899/ffffff?text=Vlog+Thumbnail",
		Keywords:     []string{"Vlog", "Lifestyle", "Personal"},
		Style:        "Photorealistic",
		ColorPalette: "Warm tones",
	},
	{
		ID:           5,
		Title:        "Music Video",
		Description:  "Vibrant and dynamic for music content",
		Image:        "https://placehold.co/600x340/8b5cf6/ffffff?text=Music+Video",
		Keywords:     []string{"Music", "Dynamic", "Artistic"},
		Style:        "Neon",
		ColorPalette: "Dark with vibrant accents",
	},
	{
		ID:           6,
		Title:        "Retro Style",
		Description:  "Vintage look for nostalgic content",
		Image:        "https://placehold.co/600x340/ef4444/ffffff?text=Retro+Style",
		Keywords:     []string{"Retro", "Vintage", "Nostalgic"},
		Style:        "Retro",
		ColorPalette: "Faded colors, sepia tones",
	},
}

// All returns a copy of every template in display order.
func All() []domain.Template {
	out := make([]domain.Template, len(templates))
	for i, t := range templates {
		out[i] = clone(t)
	}
	return out
}

// Get looks a template up by id.
func Get(id int) (domain.Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return clone(t), true
		}
	}
	return domain.Template{}, false
}

// Search returns templates whose title, description or any keyword contains
// the query, compared case-insensitively. A blank query returns everything.
func Search(query string) []domain.Template {
	query = strings.TrimSpace(query)
	if query == "" {
		return All()
	}
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]domain.Template, 0, len(templates))
	for _, t := range templates {
		if matches(fold, t, needle) {
			out = append(out, clone(t))
		}
	}
	return out
}

func matches(fold cases.Caser, t domain.Template, needle string) bool {
	if strings.Contains(fold.String(t.Title), needle) || strings.Contains(fold.String(t.Description), needle) {
		return true
	}
	for _, k := range t.Keywords {
		if strings.Contains(fold.String(k), needle) {
			return true
		}
	}
	return false
}

func clone(t domain.Template) domain.Template {
	t.Keywords = append([]string(nil), t.Keywords...)
	return t
}
