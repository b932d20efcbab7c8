package lumen

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// PaintFunc fills a surface image. It runs on the first draw after creation
// or invalidation, never on the update path.
type PaintFunc func(img *ebiten.Image)

// Surface is a persistent offscreen raster owned by one overlay node. The
// image is allocated lazily at draw time, so building overlays never touches
// the GPU.
type Surface struct {
	image *ebiten.Image
	w, h  int
	paint PaintFunc
	dirty bool
}

// NewSurface creates a w×h surface painted by paint.
func NewSurface(w, h int, paint PaintFunc) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Surface{w: w, h: h, paint: paint, dirty: true}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.w
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.h
}

// Invalidate schedules a repaint on the next draw.
func (s *Surface) Invalidate() {
	s.dirty = true
}

// Allocated reports whether the backing image exists.
func (s *Surface) Allocated() bool {
	return s.image != nil
}

// Resize changes the surface dimensions; the image is reallocated and
// repainted on the next draw.
func (s *Surface) Resize(w, h int) {
	if w == s.w && h == s.h {
		return
	}
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
	s.w, s.h = max(w, 1), max(h, 1)
	s.dirty = true
}

// Image returns the backing image, allocating and painting it if needed.
func (s *Surface) Image() *ebiten.Image {
	if s.image == nil {
		s.image = ebiten.NewImage(s.w, s.h)
		s.dirty = true
	}
	if s.dirty {
		s.image.Clear()
		if s.paint != nil {
			s.paint(s.image)
		}
		s.dirty = false
	}
	return s.image
}

// Dispose deallocates the backing image. Safe to call more than once.
func (s *Surface) Dispose() {
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
	s.paint = nil
}

// drawImageOpts configures op to place an image of size (w, h) into bounds
// with the given tint and opacity.
func drawImageOpts(op *ebiten.DrawImageOptions, w, h int, bounds Rect, c Color, alpha float64, blend BlendMode) {
	sx, sy := 1.0, 1.0
	if w > 0 && bounds.Width > 0 {
		sx = bounds.Width / float64(w)
	}
	if h > 0 && bounds.Height > 0 {
		sy = bounds.Height / float64(h)
	}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(bounds.X, bounds.Y)
	a := c.A * alpha
	op.ColorScale.Scale(
		float32(c.R*a),
		float32(c.G*a),
		float32(c.B*a),
		float32(a),
	)
	op.Blend = blend.EbitenBlend()
}
