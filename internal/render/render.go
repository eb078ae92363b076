// Package render rasterizes scene frames with imaging and x/image.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"thumbgen/internal/domain"
	"thumbgen/internal/scene"
)

// ExportMultiplier is the pixel density of exported PNGs.
const ExportMultiplier = 2

// AssetLoader returns stored image bytes by key.
type AssetLoader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// Options controls one rasterization.
type Options struct {
	// Multiplier scales the 1280x720 canvas; values <= 0 mean 1.
	Multiplier float64
	// Chrome draws the selection box around the selected element.
	Chrome bool
}

// Rasterizer draws frames. It is safe for concurrent use.
type Rasterizer struct {
	assets AssetLoader
	fonts  *fontSet

	mu       sync.Mutex
	cache    map[string]image.Image
	maxCache int
}

// NewRasterizer parses the bundled fonts and returns a rasterizer reading
// images through assets.
func NewRasterizer(assets AssetLoader) (*Rasterizer, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Rasterizer{assets: assets, fonts: fonts, cache: make(map[string]image.Image), maxCache: 32}, nil
}

// Size returns the output dimensions for a multiplier.
func Size(multiplier float64) (int, int) {
	if multiplier <= 0 {
		multiplier = 1
	}
	return int(math.Round(scene.CanvasWidth * multiplier)), int(math.Round(scene.CanvasHeight * multiplier))
}

// Render draws frame bottom to top onto a fresh canvas.
func (r *Rasterizer) Render(ctx context.Context, frame scene.Frame, opts Options) (*image.NRGBA, error) {
	m := opts.Multiplier
	if m <= 0 {
		m = 1
	}
	bg, err := scene.ParseColor(scene.CanvasBackground)
	if err != nil {
		return nil, err
	}
	w, h := Size(m)
	canvas := imaging.New(w, h, bg)

	var selection *placed
	for _, e := range frame.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l, err := r.layer(ctx, e, m)
		if err != nil {
			return nil, fmt.Errorf("render: element %s: %w", e.ID, err)
		}
		var p placed
		canvas, p = composite(canvas, e, l, m)
		if e.ID == frame.Selected {
			selection = &p
		}
	}
	if opts.Chrome && selection != nil {
		drawSelection(canvas, *selection, m)
	}
	return canvas, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func (r *Rasterizer) layer(ctx context.Context, e scene.Element, m float64) (layer, error) {
	switch {
	case e.Kind.IsImage():
		return r.imageLayer(ctx, e, m)
	case e.Kind == scene.KindText:
		return r.textLayer(e, m)
	case e.Kind.IsShape():
		return shapeLayer(e, m)
	}
	return layer{}, fmt.Errorf("unsupported kind %q", e.Kind)
}

func (r *Rasterizer) imageLayer(ctx context.Context, e scene.Element, m float64) (layer, error) {
	src, err := r.loadImage(ctx, e.Image.AssetKey)
	if err != nil {
		return layer{}, err
	}
	w := e.ScaledWidth() * m
	h := e.ScaledHeight() * m
	W, H := max(1, int(math.Round(w))), max(1, int(math.Round(h)))
	if err := checkLayer(W, H, m); err != nil {
		return layer{}, err
	}
	img := imaging.Resize(src, W, H, imaging.Lanczos)
	return layer{img: img, w: w, h: h}, nil
}

func (r *Rasterizer) loadImage(ctx context.Context, key string) (image.Image, error) {
	r.mu.Lock()
	if img, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	data, err := r.assets.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	r.mu.Lock()
	if len(r.cache) >= r.maxCache {
		clear(r.cache)
	}
	r.cache[key] = img
	r.mu.Unlock()
	return img, nil
}

// ErrLayerTooLarge is returned instead of allocating an oversized bitmap.
var ErrLayerTooLarge = errors.New("render: layer exceeds raster limit")

// checkLayer bounds a W x H allocation at multiplier m. Elements that pass
// scene validation, padding included, stay below it.
func checkLayer(W, H int, m float64) error {
	side := 1.5 * scene.MaxExtent * m
	area := 3 * scene.MaxArea * m * m
	if W <= 0 || H <= 0 || float64(W) > side || float64(H) > side || float64(W)*float64(H) > area {
		return fmt.Errorf("%w: %w: %dx%d", domain.ErrInvalidElement, ErrLayerTooLarge, W, H)
	}
	return nil
}

// newLayerImage allocates a transparent layer after checkLayer.
func newLayerImage(W, H int, m float64) (*image.NRGBA, error) {
	if err := checkLayer(W, H, m); err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, W, H)), nil
}

// layer is an unrotated element bitmap. w and h are the element's content
// size in output pixels; the bitmap may add pad pixels on each side for
// strokes and shadows.
type layer struct {
	img  *image.NRGBA
	w, h float64
}

// placed is where an element ended up on the canvas, in output pixels.
type placed struct {
	cx, cy float64
	w, h   float64
	angle  float64
}

func composite(canvas *image.NRGBA, e scene.Element, l layer, m float64) (*image.NRGBA, placed) {
	angle := normalizeAngle(e.Geometry.Angle)
	img := l.img
	if angle != 0 {
		img = imaging.Rotate(img, -angle, color.Transparent)
	}
	cx, cy := center(e.Geometry, l.w/m, l.h/m)
	cx, cy = cx*m, cy*m
	b := img.Bounds()
	x := int(math.Round(cx - float64(b.Dx())/2))
	y := int(math.Round(cy - float64(b.Dy())/2))

	if s := e.Paint.Shadow; s != nil && !e.Kind.IsImage() {
		if sc, err := scene.ParseColor(s.Color); err == nil && sc.A > 0 {
			sh := silhouette(img, sc)
			if s.Blur > 0 {
				sh = imaging.Blur(sh, s.Blur*m/2)
			}
			pt := image.Pt(x+int(math.Round(s.OffsetX*m)), y+int(math.Round(s.OffsetY*m)))
			canvas = imaging.Overlay(canvas, sh, pt, 1)
		}
	}
	canvas = imaging.Overlay(canvas, img, image.Pt(x, y), 1)
	return canvas, placed{cx: cx, cy: cy, w: l.w, h: l.h, angle: angle}
}

// center returns the element center in canvas units. Rotation pivots on the
// origin point, so a top-left anchored element swings its center around it.
func center(g scene.Geometry, w, h float64) (float64, float64) {
	if g.Origin == scene.OriginCenter {
		return g.Left, g.Top
	}
	rad := g.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx := w/2*cos - h/2*sin
	dy := w/2*sin + h/2*cos
	return g.Left + dx, g.Top + dy
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// silhouette paints every pixel of img with c, keeping img's coverage.
func silhouette(img *image.NRGBA, c color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a == 0 {
			continue
		}
		out.Pix[i] = c.R
		out.Pix[i+1] = c.G
		out.Pix[i+2] = c.B
		out.Pix[i+3] = uint8(uint16(a) * uint16(c.A) / 255)
	}
	return out
}

// shadowPad is the room a blurred, offset shadow needs around a layer.
func shadowPad(p scene.Paint, m float64) int {
	if p.Shadow == nil {
		return 0
	}
	return int(math.Ceil((p.Shadow.Blur*1.5 + math.Max(math.Abs(p.Shadow.OffsetX), math.Abs(p.Shadow.OffsetY))) * m))
}
