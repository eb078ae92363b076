package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	selectionColor = color.NRGBA{R: 102, G: 153, B: 255, A: 191}
	handleSize     = 13.0
)

// drawSelection outlines the axis-aligned bounds of a placed element and
// marks its corners and edge midpoints with handles.
func drawSelection(canvas *image.NRGBA, p placed, m float64) {
	rad := p.angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hw := (math.Abs(p.w*cos) + math.Abs(p.h*sin)) / 2
	hh := (math.Abs(p.w*sin) + math.Abs(p.h*cos)) / 2
	box := image.Rect(
		int(math.Round(p.cx-hw)), int(math.Round(p.cy-hh)),
		int(math.Round(p.cx+hw)), int(math.Round(p.cy+hh)),
	)
	thickness := max(1, int(math.Round(m)))
	src := image.NewUniform(selectionColor)

	edges := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+thickness),
		image.Rect(box.Min.X, box.Max.Y-thickness, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+thickness, box.Max.Y),
		image.Rect(box.Max.X-thickness, box.Min.Y, box.Max.X, box.Max.Y),
	}
	for _, r := range edges {
		draw.Draw(canvas, r.Intersect(canvas.Bounds()), src, image.Point{}, draw.Over)
	}

	half := int(math.Round(handleSize * m / 2))
	midX := (box.Min.X + box.Max.X) / 2
	midY := (box.Min.Y + box.Max.Y) / 2
	for _, pt := range []image.Point{
		{box.Min.X, box.Min.Y}, {midX, box.Min.Y}, {box.Max.X, box.Min.Y},
		{box.Min.X, midY}, {box.Max.X, midY},
		{box.Min.X, box.Max.Y}, {midX, box.Max.Y}, {box.Max.X, box.Max.Y},
	} {
		handle := image.Rect(pt.X-half, pt.Y-half, pt.X+half, pt.Y+half)
		draw.Draw(canvas, handle.Intersect(canvas.Bounds()), src, image.Point{}, draw.Over)
	}
}
