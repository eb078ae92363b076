package scene

const uploadMaxWidth = 300

// CoverScale returns the uniform scale that makes a w x h image cover the
// canvas: fit to width first, fall back to height when that leaves a gap.
func CoverScale(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	scale := float64(CanvasWidth) / float64(w)
	if float64(h)*scale < CanvasHeight {
		scale = float64(CanvasHeight) / float64(h)
	}
	return scale
}

// FitWidthScale shrinks images wider than maxWidth and leaves smaller ones alone.
func FitWidthScale(w int, maxWidth float64) float64 {
	if w <= 0 || float64(w) <= maxWidth {
		return 1
	}
	return maxWidth / float64(w)
}

var titleShadow = Shadow{Color: "rgba(0,0,0,0.5)", Blur: 5, OffsetX: 2, OffsetY: 2}

const (
	defaultFontFamily = "Inter, Arial, sans-serif"
	defaultTitle      = "Your Title Here"
	defaultText       = "New Text"
	defaultShapeFill  = "rgba(255, 255, 255, 0.5)"
)

func textPaint() Paint {
	shadow := titleShadow
	return Paint{Fill: "#ffffff", Stroke: "#000000", StrokeWidth: 1, Shadow: &shadow}
}

func backgroundElement(id string, img ImageSource) Element {
	scale := CoverScale(img.Width, img.Height)
	src := img
	return Element{
		ID:   id,
		Kind: KindBackground,
		Geometry: Geometry{
			Left:   CanvasWidth / 2,
			Top:    CanvasHeight / 2,
			Width:  float64(img.Width),
			Height: float64(img.Height),
			ScaleX: scale,
			ScaleY: scale,
			Origin: OriginCenter,
		},
		Image: &src,
	}
}

func titleElement(id, title string) Element {
	if title == "" {
		title = defaultTitle
	}
	return Element{
		ID:   id,
		Kind: KindText,
		Geometry: Geometry{
			Left:   CanvasWidth / 2,
			Top:    CanvasHeight / 2,
			Width:  500,
			ScaleX: 1,
			ScaleY: 1,
			Origin: OriginCenter,
		},
		Paint: textPaint(),
		Text: &TextStyle{
			Content:    title,
			FontFamily: defaultFontFamily,
			FontSize:   60,
			FontWeight: "bold",
			TextAlign:  "center",
		},
	}
}

func textElement(id, content string) Element {
	if content == "" {
		content = defaultText
	}
	return Element{
		ID:   id,
		Kind: KindText,
		Geometry: Geometry{
			Left:   100,
			Top:    100,
			Width:  200,
			ScaleX: 1,
			ScaleY: 1,
			Origin: OriginTopLeft,
		},
		Paint: textPaint(),
		Text: &TextStyle{
			Content:    content,
			FontFamily: defaultFontFamily,
			FontSize:   30,
			FontWeight: "bold",
			TextAlign:  "center",
		},
	}
}

func shapeElement(id string, kind Kind) Element {
	return Element{
		ID:   id,
		Kind: kind,
		Geometry: Geometry{
			Left:   100,
			Top:    100,
			Width:  100,
			Height: 100,
			Radius: radiusFor(kind),
			ScaleX: 1,
			ScaleY: 1,
			Origin: OriginTopLeft,
		},
		Paint: Paint{Fill: defaultShapeFill, Stroke: "#000000", StrokeWidth: 1},
	}
}

func radiusFor(kind Kind) float64 {
	if kind == KindCircle {
		return 50
	}
	return 0
}

func uploadElement(id string, img ImageSource) Element {
	scale := FitWidthScale(img.Width, uploadMaxWidth)
	src := img
	return Element{
		ID:   id,
		Kind: KindUploadedImage,
		Geometry: Geometry{
			Left:   100,
			Top:    100,
			Width:  float64(img.Width),
			Height: float64(img.Height),
			ScaleX: scale,
			ScaleY: scale,
			Origin: OriginTopLeft,
		},
		Image: &src,
	}
}
