package lumen

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// whitePixel is a 1x1 white image used for solid rects and rotated quads.
// Created on first draw so that building overlays never touches the GPU.
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toNRGBA())
	}
	return whitePixel
}

// Draw renders the overlay onto screen: aura, theme layer, particles, then
// the effect layer on top.
// Queued screenshots capture the finished frame.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.root != nil && h.root.Visible {
		alpha := h.root.Alpha
		h.drawNode(screen, h.aura, alpha)
		h.drawNode(screen, h.theme, alpha)
		h.drawParticles(screen)
		h.drawNode(screen, h.effects, alpha)
	}
	if h.debug {
		h.drawDebugHUD(screen)
	}
	h.flushScreenshots(screen)
}

func (h *Host) drawNode(dst *ebiten.Image, n *Node, parentAlpha float64) {
	if n == nil || !n.Visible || n.disposed {
		return
	}
	alpha := parentAlpha * n.Alpha
	if alpha <= 0 {
		return
	}

	switch n.Kind {
	case NodeRect:
		if n.Width > 0 && n.Height > 0 {
			var op ebiten.DrawImageOptions
			drawImageOpts(&op, 1, 1, n.Bounds(), n.Color, alpha, n.BlendMode)
			dst.DrawImage(ensureWhitePixel(), &op)
		}
	case NodeSurface:
		if n.Surface != nil {
			var op ebiten.DrawImageOptions
			drawImageOpts(&op, n.Surface.Width(), n.Surface.Height(), n.Bounds(), n.Color, alpha, n.BlendMode)
			dst.DrawImage(n.Surface.Image(), &op)
		}
	case NodeShader:
		if n.Shader != nil {
			n.Shader.draw(dst, n, alpha, h.shadersEnabled)
		}
	case NodeDraw:
		if n.Draw != nil {
			n.Draw(dst, n, alpha)
		}
	}

	for _, c := range n.drawOrder() {
		h.drawNode(dst, c, alpha)
	}
}

func (h *Host) drawParticles(dst *ebiten.Image) {
	h.pool.Each(func(p *Particle) {
		drawParticle(dst, p)
	})
}

func drawParticle(dst *ebiten.Image, p *Particle) {
	a := p.Color.A * p.Alpha
	if a <= 0 || p.Size <= 0 {
		return
	}
	clr := p.Color.WithAlpha(a).toNRGBA()
	x, y, r := float32(p.X), float32(p.Y), float32(p.Size)

	switch p.Kind {
	case KindFlake:
		halo := p.Color.WithAlpha(a * 0.35).toNRGBA()
		vector.DrawFilledCircle(dst, x, y, r*1.8, halo, true)
		vector.DrawFilledCircle(dst, x, y, r, clr, true)
	case KindStreak:
		speed := math.Hypot(p.VX, p.VY)
		if speed == 0 {
			vector.DrawFilledCircle(dst, x, y, r*0.5, clr, true)
			return
		}
		l := p.Size * 6
		x0 := float32(p.X - p.VX/speed*l)
		y0 := float32(p.Y - p.VY/speed*l)
		vector.StrokeLine(dst, x0, y0, x, y, max(r*0.25, 1), clr, true)
	case KindPetal, KindConfetti:
		w, hh := p.Size*2, p.Size
		shade := 1.0
		if p.Kind == KindConfetti {
			// Flip shading: the flat piece turns edge-on as it spins.
			w *= math.Abs(math.Cos(p.Rotation*1.7)) + 0.15
			shade = 0.75 + 0.25*math.Abs(math.Sin(p.Rotation))
		}
		var op ebiten.DrawImageOptions
		op.GeoM.Translate(-0.5, -0.5)
		op.GeoM.Scale(w, hh)
		op.GeoM.Rotate(p.Rotation)
		op.GeoM.Translate(p.X, p.Y)
		op.ColorScale.Scale(
			float32(p.Color.R*shade*a),
			float32(p.Color.G*shade*a),
			float32(p.Color.B*shade*a),
			float32(a),
		)
		op.Blend = p.BlendMode.EbitenBlend()
		dst.DrawImage(ensureWhitePixel(), &op)
	case KindGlow:
		halo := p.Color.WithAlpha(a * 0.25).toNRGBA()
		vector.DrawFilledCircle(dst, x, y, r*2.5, halo, true)
		vector.DrawFilledCircle(dst, x, y, r, clr, true)
	case KindRing:
		vector.StrokeCircle(dst, x, y, r, max(r*0.12, 1), clr, true)
	default:
		vector.DrawFilledCircle(dst, x, y, r, clr, true)
	}
}
