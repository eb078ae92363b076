package scene

import (
	"fmt"

	"thumbgen/internal/domain"
)

// Patch is a partial update of an element. Nil fields are left untouched.
// Which fields apply depends on the element kind; see Patch.validateFor.
type Patch struct {
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Radius *float64 `json:"radius,omitempty"`
	Angle  *float64 `json:"angle,omitempty"`
	ScaleX *float64 `json:"scaleX,omitempty"`
	ScaleY *float64 `json:"scaleY,omitempty"`

	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Shadow      *Shadow  `json:"shadow,omitempty"`

	Content    *string  `json:"text,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontWeight *string  `json:"fontWeight,omitempty"`
	TextAlign  *string  `json:"textAlign,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func (p Patch) hasPaint() bool {
	return p.Fill != nil || p.Stroke != nil || p.StrokeWidth != nil || p.Shadow != nil
}

func (p Patch) hasText() bool {
	return p.Content != nil || p.FontFamily != nil || p.FontSize != nil || p.FontWeight != nil || p.TextAlign != nil
}

func invalidPatch(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrInvalidPatch, kind, fmt.Sprintf(format, args...))
}

// validateFor rejects fields that do not exist on kind and out-of-range values.
func (p Patch) validateFor(kind Kind) error {
	if p.hasText() && kind != KindText {
		return invalidPatch(kind, "text attributes only apply to text elements")
	}
	if p.Radius != nil && kind != KindCircle {
		return invalidPatch(kind, "radius only applies to circles")
	}
	if p.hasPaint() && kind.IsImage() {
		return invalidPatch(kind, "image elements have no paint")
	}
	if (p.Width != nil || p.Height != nil) && (kind.IsImage() || kind == KindCircle) {
		return invalidPatch(kind, "size is derived, use scale or radius instead")
	}
	if p.Height != nil && kind == KindText {
		return invalidPatch(kind, "text height follows its content")
	}

	for name, v := range map[string]*float64{"left": p.Left, "top": p.Top, "angle": p.Angle} {
		if v != nil && !finite(*v) {
			return invalidPatch(kind, "%s must be finite", name)
		}
	}
	for name, v := range map[string]*float64{
		"width": p.Width, "height": p.Height, "radius": p.Radius,
		"scaleX": p.ScaleX, "scaleY": p.ScaleY, "fontSize": p.FontSize,
	} {
		if v != nil && (!finite(*v) || *v <= 0) {
			return invalidPatch(kind, "%s must be positive", name)
		}
	}
	if p.FontSize != nil && *p.FontSize > MaxFontSize {
		return invalidPatch(kind, "fontSize must not exceed %d", MaxFontSize)
	}
	if p.StrokeWidth != nil && (!finite(*p.StrokeWidth) || *p.StrokeWidth < 0 || *p.StrokeWidth > MaxStrokeWidth) {
		return invalidPatch(kind, "strokeWidth must be between 0 and %d", MaxStrokeWidth)
	}
	for name, v := range map[string]*float64{"width": p.Width, "height": p.Height, "radius": p.Radius} {
		if v != nil && *v > MaxExtent {
			return invalidPatch(kind, "%s must not exceed %d", name, MaxExtent)
		}
	}
	for _, c := range []*string{p.Fill, p.Stroke} {
		if c == nil {
			continue
		}
		if _, err := ParseColor(*c); err != nil {
			return err
		}
	}
	if p.Shadow != nil {
		if _, err := ParseColor(p.Shadow.Color); err != nil {
			return err
		}
		if err := p.Shadow.validate(); err != nil {
			return invalidPatch(kind, "%v", err)
		}
	}
	if p.FontFamily != nil && *p.FontFamily == "" {
		return invalidPatch(kind, "fontFamily must not be empty")
	}
	if p.TextAlign != nil && !validAlign(*p.TextAlign) {
		return invalidPatch(kind, "textAlign %q", *p.TextAlign)
	}
	if p.FontWeight != nil && !validWeight(*p.FontWeight) {
		return invalidPatch(kind, "fontWeight %q", *p.FontWeight)
	}
	return nil
}

// apply merges p into e. The caller validates first.
func (p Patch) apply(e *Element) {
	g := &e.Geometry
	setFloat(&g.Left, p.Left)
	setFloat(&g.Top, p.Top)
	setFloat(&g.Width, p.Width)
	setFloat(&g.Height, p.Height)
	setFloat(&g.Angle, p.Angle)
	setFloat(&g.ScaleX, p.ScaleX)
	setFloat(&g.ScaleY, p.ScaleY)
	if p.Radius != nil {
		g.Radius = *p.Radius
		g.Width = 2 * g.Radius
		g.Height = 2 * g.Radius
	}

	setString(&e.Paint.Fill, p.Fill)
	setString(&e.Paint.Stroke, p.Stroke)
	setFloat(&e.Paint.StrokeWidth, p.StrokeWidth)
	if p.Shadow != nil {
		s := *p.Shadow
		e.Paint.Shadow = &s
	}

	if e.Text != nil {
		setString(&e.Text.Content, p.Content)
		setString(&e.Text.FontFamily, p.FontFamily)
		setFloat(&e.Text.FontSize, p.FontSize)
		setString(&e.Text.FontWeight, p.FontWeight)
		setString(&e.Text.TextAlign, p.TextAlign)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
