package domain

// Template is a read-only preset of generation fields.
type Template struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Keywords     []string `json:"keywords"`
	Style        string   `json:"style"`
	ColorPalette string   `json:"colorPalette"`
}

// Request prefills a GenerationRequest from the template. Subtitle is never
// part of a preset.
func (t Template) Request() GenerationRequest {
	return GenerationRequest{
		Title:        t.Title,
		Keywords:     append([]string(nil), t.Keywords...),
		ColorPalette: t.ColorPalette,
		Style:        t.Style,
	}
}
