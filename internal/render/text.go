package render

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"thumbgen/internal/scene"
)

// fontSet holds the bundled Go fonts. Font families requested by elements
// are not resolved; every family renders with Go Regular or Go Bold.
type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

func loadFonts() (*fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse bold font: %w", err)
	}
	return &fontSet{regular: regular, bold: bold}, nil
}

func (f *fontSet) face(t scene.TextStyle, size float64) (font.Face, error) {
	src := f.regular
	if t.IsBold() {
		src = f.bold
	}
	return opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func (r *Rasterizer) textLayer(e scene.Element, m float64) (layer, error) {
	t := *e.Text
	g := e.Geometry
	size := t.FontSize * g.ScaleY * m
	face, err := r.fonts.face(t, size)
	if err != nil {
		return layer{}, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	boxW := g.Width * g.ScaleX * m
	lines := wrapText(face, t.Content, boxW)
	for _, line := range lines {
		boxW = math.Max(boxW, toFloat(font.MeasureString(face, line)))
	}
	lineH := size * scene.TextLineHeight
	boxH := lineH * float64(len(lines))

	sw := e.Paint.StrokeWidth * m
	pad := int(math.Ceil(sw)) + shadowPad(e.Paint, m) + 1
	W := int(math.Ceil(boxW)) + 2*pad
	H := int(math.Ceil(boxH)) + 2*pad
	img, err := newLayerImage(W, H, m)
	if err != nil {
		return layer{}, err
	}

	metrics := face.Metrics()
	ascent := toFloat(metrics.Ascent)
	glyphH := ascent + toFloat(metrics.Descent)

	type placedLine struct {
		text string
		dot  fixed.Point26_6
	}
	placedLines := make([]placedLine, 0, len(lines))
	for i, line := range lines {
		adv := toFloat(font.MeasureString(face, line))
		x := float64(pad)
		switch t.TextAlign {
		case "center":
			x += (boxW - adv) / 2
		case "right":
			x += boxW - adv
		}
		y := float64(pad) + float64(i)*lineH + (lineH-glyphH)/2 + ascent
		placedLines = append(placedLines, placedLine{text: line, dot: fixed.P(int(math.Round(x)), int(math.Round(y)))})
	}

	if stroke, ok := paintColor(e.Paint.Stroke); ok && sw > 0 {
		d := &font.Drawer{Dst: img, Src: image.NewUniform(stroke), Face: face}
		for _, off := range ringOffsets(sw) {
			for _, pl := range placedLines {
				d.Dot = pl.dot.Add(off)
				d.DrawString(pl.text)
			}
		}
	}
	if fill, ok := paintColor(e.Paint.Fill); ok {
		d := &font.Drawer{Dst: img, Src: image.NewUniform(fill), Face: face}
		for _, pl := range placedLines {
			d.Dot = pl.dot
			d.DrawString(pl.text)
		}
	}
	return layer{img: img, w: boxW, h: boxH}, nil
}

// ringOffsets samples a circle of radius r for outline drawing.
func ringOffsets(r float64) []fixed.Point26_6 {
	steps := 16
	out := make([]fixed.Point26_6, 0, steps)
	for i := 0; i < steps; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(steps))
		out = append(out, fixed.Point26_6{
			X: fixed.Int26_6(math.Round(cos * r * 64)),
			Y: fixed.Int26_6(math.Round(sin * r * 64)),
		})
	}
	return out
}

// wrapText breaks content into lines no wider than width, keeping explicit
// newlines. A single word wider than width gets a line of its own.
func wrapText(face font.Face, content string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, w := range words[1:] {
			candidate := current + " " + w
			if toFloat(font.MeasureString(face, candidate)) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = w
		}
		lines = append(lines, current)
	}
	return lines
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
