// Package scene is the overlay-editing model: an ordered set of elements on a
// 1280x720 canvas, a selection, and a linear snapshot history.
package scene

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"thumbgen/internal/domain"
)

const (
	CanvasWidth  = 1280
	CanvasHeight = 720

	// CanvasBackground is painted under every element.
	CanvasBackground = "#f0f0f0"
)

// Limits on a single element so every layer stays rasterizable.
const (
	MaxExtent       = 4 * CanvasWidth
	MaxArea         = 4 * CanvasWidth * CanvasHeight
	MaxFontSize     = 400
	MaxStrokeWidth  = 50
	MaxShadowBlur   = 50
	MaxShadowOffset = 100
	MaxTextLength   = 2000

	// TextLineHeight is the line spacing as a multiple of the font size.
	TextLineHeight = 1.16
)

// Kind discriminates the element schema.
type Kind string

const (
	KindBackground    Kind = "background-image"
	KindText          Kind = "text"
	KindRectangle     Kind = "rectangle"
	KindCircle        Kind = "circle"
	KindTriangle      Kind = "triangle"
	KindUploadedImage Kind = "uploaded-image"
)

// IsShape reports whether k is one of the vector shape kinds.
func (k Kind) IsShape() bool {
	return k == KindRectangle || k == KindCircle || k == KindTriangle
}

// IsImage reports whether k carries image attributes.
func (k Kind) IsImage() bool {
	return k == KindBackground || k == KindUploadedImage
}

// ParseShapeKind accepts the shape names used by clients ("rect" is an alias).
func ParseShapeKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rect", "rectangle":
		return KindRectangle, nil
	case "circle":
		return KindCircle, nil
	case "triangle":
		return KindTriangle, nil
	default:
		return "", fmt.Errorf("%w: unsupported shape %q", domain.ErrInvalidElement, raw)
	}
}

// Origin is the anchor Left/Top refer to.
type Origin string

const (
	OriginTopLeft Origin = "top-left"
	OriginCenter  Origin = "center"
)

type Geometry struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius,omitempty"`
	Angle  float64 `json:"angle"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Origin Origin  `json:"origin"`
}

type Shadow struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type Paint struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Shadow      *Shadow `json:"shadow,omitempty"`
}

type TextStyle struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight"`
	TextAlign  string  `json:"textAlign"`
}

// ImageSource points at stored image bytes and their natural size.
type ImageSource struct {
	AssetKey string `json:"assetKey"`
	MIME     string `json:"mime"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func (s ImageSource) validate() error {
	if strings.TrimSpace(s.AssetKey) == "" {
		return fmt.Errorf("%w: image asset key is required", domain.ErrInvalidElement)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: image dimensions must be positive, got %dx%d", domain.ErrInvalidElement, s.Width, s.Height)
	}
	return nil
}

// Element is one visual object in the scene. Text is set only for KindText,
// Image only for the image kinds.
type Element struct {
	ID       string       `json:"id"`
	Kind     Kind         `json:"kind"`
	Geometry Geometry     `json:"geometry"`
	Paint    Paint        `json:"paint"`
	Text     *TextStyle   `json:"text,omitempty"`
	Image    *ImageSource `json:"image,omitempty"`
}

// ScaledWidth is the rendered width before rotation.
func (e Element) ScaledWidth() float64 {
	return e.Geometry.Width * e.Geometry.ScaleX
}

// ScaledHeight is the rendered height before rotation.
func (e Element) ScaledHeight() float64 {
	return e.Geometry.Height * e.Geometry.ScaleY
}

// Extent is the rendered size before rotation. Text height is estimated
// from its explicit line breaks.
func (e Element) Extent() (float64, float64) {
	w, h := e.ScaledWidth(), e.ScaledHeight()
	if e.Text != nil {
		lines := float64(strings.Count(e.Text.Content, "\n") + 1)
		h = lines * e.Text.FontSize * e.Geometry.ScaleY * TextLineHeight
	}
	return w, h
}

func (e Element) checkExtent() error {
	w, h := e.Extent()
	if w > MaxExtent || h > MaxExtent || w*h > MaxArea {
		return fmt.Errorf("%w: %s renders at %.0fx%.0f, limit is %dx%d and %d pixels",
			domain.ErrInvalidElement, e.ID, w, h, MaxExtent, MaxExtent, MaxArea)
	}
	return nil
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	if e.Paint.Shadow != nil {
		s := *e.Paint.Shadow
		e.Paint.Shadow = &s
	}
	if e.Text != nil {
		t := *e.Text
		e.Text = &t
	}
	if e.Image != nil {
		img := *e.Image
		e.Image = &img
	}
	return e
}

// Validate checks the fixed per-kind schema.
func (e Element) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidElement)
	}
	g := e.Geometry
	if !finite(g.Left, g.Top, g.Width, g.Height, g.Radius, g.Angle, g.ScaleX, g.ScaleY) {
		return fmt.Errorf("%w: %s geometry must be finite", domain.ErrInvalidElement, e.ID)
	}
	if g.ScaleX <= 0 || g.ScaleY <= 0 {
		return fmt.Errorf("%w: %s scale must be positive", domain.ErrInvalidElement, e.ID)
	}
	if g.Width < 0 || g.Height < 0 || g.Radius < 0 {
		return fmt.Errorf("%w: %s size must not be negative", domain.ErrInvalidElement, e.ID)
	}
	if g.Origin != OriginTopLeft && g.Origin != OriginCenter {
		return fmt.Errorf("%w: %s origin %q", domain.ErrInvalidElement, e.ID, g.Origin)
	}
	if err := e.Paint.validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidElement, e.ID, err)
	}

	switch {
	case e.Kind == KindText:
		if e.Text == nil || e.Image != nil {
			return fmt.Errorf("%w: %s text element requires text attributes only", domain.ErrInvalidElement, e.ID)
		}
		if e.Text.FontSize <= 0 || g.Width <= 0 {
			return fmt.Errorf("%w: %s font size and width must be positive", domain.ErrInvalidElement, e.ID)
		}
		if e.Text.FontSize*g.ScaleY > MaxFontSize {
			return fmt.Errorf("%w: %s font renders above %d px", domain.ErrInvalidElement, e.ID, MaxFontSize)
		}
		if utf8.RuneCountInString(e.Text.Content) > MaxTextLength {
			return fmt.Errorf("%w: %s text exceeds %d characters", domain.ErrInvalidElement, e.ID, MaxTextLength)
		}
		if !validAlign(e.Text.TextAlign) || !validWeight(e.Text.FontWeight) {
			return fmt.Errorf("%w: %s text style", domain.ErrInvalidElement, e.ID)
		}
	case e.Kind.IsShape():
		if e.Text != nil || e.Image != nil {
			return fmt.Errorf("%w: %s shape carries foreign attributes", domain.ErrInvalidElement, e.ID)
		}
		if e.Kind == KindCircle && g.Radius <= 0 {
			return fmt.Errorf("%w: %s circle radius must be positive", domain.ErrInvalidElement, e.ID)
		}
		if e.Kind != KindCircle && (g.Width <= 0 || g.Height <= 0) {
			return fmt.Errorf("%w: %s shape size must be positive", domain.ErrInvalidElement, e.ID)
		}
	case e.Kind.IsImage():
		if e.Image == nil || e.Text != nil {
			return fmt.Errorf("%w: %s image element requires image attributes only", domain.ErrInvalidElement, e.ID)
		}
		if err := e.Image.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidElement, e.Kind)
	}
	return e.checkExtent()
}

func (p Paint) validate() error {
	for _, c := range []string{p.Fill, p.Stroke} {
		if c == "" {
			continue
		}
		if _, err := ParseColor(c); err != nil {
			return err
		}
	}
	if p.StrokeWidth < 0 || p.StrokeWidth > MaxStrokeWidth || !finite(p.StrokeWidth) {
		return fmt.Errorf("stroke width must be between 0 and %d", MaxStrokeWidth)
	}
	if p.Shadow != nil {
		if _, err := ParseColor(p.Shadow.Color); err != nil {
			return err
		}
		if err := p.Shadow.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s Shadow) validate() error {
	if !finite(s.Blur, s.OffsetX, s.OffsetY) {
		return fmt.Errorf("shadow values must be finite")
	}
	if s.Blur < 0 || s.Blur > MaxShadowBlur {
		return fmt.Errorf("shadow blur must be between 0 and %d", MaxShadowBlur)
	}
	if math.Abs(s.OffsetX) > MaxShadowOffset || math.Abs(s.OffsetY) > MaxShadowOffset {
		return fmt.Errorf("shadow offset must be within %d", MaxShadowOffset)
	}
	return nil
}

func validAlign(a string) bool {
	switch a {
	case "left", "center", "right", "justify":
		return true
	}
	return false
}

func validWeight(w string) bool {
	switch w {
	case "normal", "bold", "100", "200", "300", "400", "500", "600", "700", "800", "900":
		return true
	}
	return false
}

// IsBold reports whether the weight renders with the bold face.
func (t TextStyle) IsBold() bool {
	switch t.FontWeight {
	case "bold", "600", "700", "800", "900":
		return true
	}
	return false
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
