package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"thumbgen/internal/scene"
)

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

type point struct{ x, y float64 }

func shapeLayer(e scene.Element, m float64) (layer, error) {
	g := e.Geometry
	w := g.Width * g.ScaleX * m
	h := g.Height * g.ScaleY * m
	if e.Kind == scene.KindCircle {
		w = 2 * g.Radius * g.ScaleX * m
		h = 2 * g.Radius * g.ScaleY * m
	}
	sw := e.Paint.StrokeWidth * m
	pad := int(math.Ceil(sw/2)) + shadowPad(e.Paint, m) + 1
	W := int(math.Ceil(w)) + 2*pad
	H := int(math.Ceil(h)) + 2*pad
	img, err := newLayerImage(W, H, m)
	if err != nil {
		return layer{}, err
	}
	origin := point{float64(pad), float64(pad)}

	if fill, ok := paintColor(e.Paint.Fill); ok {
		rz := vector.NewRasterizer(W, H)
		outline(rz, e.Kind, origin, w, h, 0, false)
		rz.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{})
	}
	if stroke, ok := paintColor(e.Paint.Stroke); ok && sw > 0 {
		rz := vector.NewRasterizer(W, H)
		outline(rz, e.Kind, origin, w, h, sw/2, false)
		outline(rz, e.Kind, origin, w, h, -sw/2, true)
		rz.Draw(img, img.Bounds(), image.NewUniform(stroke), image.Point{})
	}
	return layer{img: img, w: w, h: h}, nil
}

func paintColor(raw string) (color.NRGBA, bool) {
	if raw == "" {
		return color.NRGBA{}, false
	}
	c, err := scene.ParseColor(raw)
	if err != nil || c.A == 0 {
		return color.NRGBA{}, false
	}
	return c, true
}

// outline adds the shape's contour grown by d (shrunk when negative). The
// rasterizer accumulates signed area, so a reversed inner contour punches a
// hole and together with the outer one forms the stroke ring.
func outline(rz *vector.Rasterizer, kind scene.Kind, o point, w, h, d float64, reverse bool) {
	switch kind {
	case scene.KindCircle:
		rx, ry := w/2+d, h/2+d
		if rx <= 0 || ry <= 0 {
			return
		}
		ellipse(rz, point{o.x + w/2, o.y + h/2}, rx, ry, reverse)
	case scene.KindTriangle:
		pts := []point{{o.x + w/2, o.y}, {o.x + w, o.y + h}, {o.x, o.y + h}}
		if pts = offsetTriangle(pts, d); pts != nil {
			polygon(rz, pts, reverse)
		}
	default:
		if w+2*d <= 0 || h+2*d <= 0 {
			return
		}
		polygon(rz, []point{
			{o.x - d, o.y - d},
			{o.x + w + d, o.y - d},
			{o.x + w + d, o.y + h + d},
			{o.x - d, o.y + h + d},
		}, reverse)
	}
}

func polygon(rz *vector.Rasterizer, pts []point, reverse bool) {
	if reverse {
		rev := make([]point, len(pts))
		for i, p := range pts {
			rev[len(pts)-1-i] = p
		}
		pts = rev
	}
	rz.MoveTo(float32(pts[0].x), float32(pts[0].y))
	for _, p := range pts[1:] {
		rz.LineTo(float32(p.x), float32(p.y))
	}
	rz.ClosePath()
}

func ellipse(rz *vector.Rasterizer, c point, rx, ry float64, reverse bool) {
	kx, ky := rx*kappa, ry*kappa
	sy := 1.0
	if reverse {
		sy = -1
	}
	f := func(v float64) float32 { return float32(v) }
	rz.MoveTo(f(c.x+rx), f(c.y))
	rz.CubeTo(f(c.x+rx), f(c.y+sy*ky), f(c.x+kx), f(c.y+sy*ry), f(c.x), f(c.y+sy*ry))
	rz.CubeTo(f(c.x-kx), f(c.y+sy*ry), f(c.x-rx), f(c.y+sy*ky), f(c.x-rx), f(c.y))
	rz.CubeTo(f(c.x-rx), f(c.y-sy*ky), f(c.x-kx), f(c.y-sy*ry), f(c.x), f(c.y-sy*ry))
	rz.CubeTo(f(c.x+kx), f(c.y-sy*ry), f(c.x+rx), f(c.y-sy*ky), f(c.x+rx), f(c.y))
	rz.ClosePath()
}

// offsetTriangle moves every edge of the triangle by d along its normal. The
// result is the triangle scaled about its incenter; nil when it collapses.
func offsetTriangle(pts []point, d float64) []point {
	a := dist(pts[1], pts[2])
	b := dist(pts[0], pts[2])
	c := dist(pts[0], pts[1])
	perimeter := a + b + c
	if perimeter == 0 {
		return nil
	}
	area := math.Abs((pts[1].x-pts[0].x)*(pts[2].y-pts[0].y)-(pts[2].x-pts[0].x)*(pts[1].y-pts[0].y)) / 2
	r := 2 * area / perimeter
	if r <= 0 || r+d <= 0 {
		return nil
	}
	in := point{
		(a*pts[0].x + b*pts[1].x + c*pts[2].x) / perimeter,
		(a*pts[0].y + b*pts[1].y + c*pts[2].y) / perimeter,
	}
	k := (r + d) / r
	out := make([]point, len(pts))
	for i, p := range pts {
		out[i] = point{in.x + (p.x-in.x)*k, in.y + (p.y-in.y)*k}
	}
	return out
}

func dist(p, q point) float64 {
	return math.Hypot(p.x-q.x, p.y-q.y)
}
