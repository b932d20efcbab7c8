package lumen

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// buildLightning returns a full-stage flash that strikes at random intervals.
// Each strike is a bright flash, a short dip and a weaker second flicker.
func buildLightning(tc *ThemeContext) *Node {
	p := tc.Params.(*StormParams)
	rng := tc.Rand
	node := NewRect("lightning", p.flashColor, tc.Stage())
	node.BlendMode = BlendAdd
	node.Alpha = 0

	interval := Range{float64(p.LightningMinMs) / 1000, float64(p.LightningMaxMs) / 1000}
	next := interval.Random(rng)
	strike := -1.0 // seconds since the current strike began, <0 when idle

	task := tc.Host.Tasks().Every(func(dt float64) bool {
		if node.IsDisposed() {
			return false
		}
		if strike < 0 {
			next -= dt
			if next <= 0 {
				strike = 0
				next = interval.Random(rng)
			}
			return true
		}
		strike += dt
		switch {
		case strike < 0.08:
			node.Alpha = p.FlashIntensity
		case strike < 0.16:
			node.Alpha = p.FlashIntensity * 0.15
		case strike < 0.24:
			node.Alpha = p.FlashIntensity * 0.6
		case strike < 0.7:
			node.Alpha = p.FlashIntensity * 0.6 * (1 - (strike-0.24)/0.46)
		default:
			node.Alpha = 0
			strike = -1
		}
		return true
	})
	node.OnStop = task.Cancel
	return node
}

// paintAurora draws soft horizontal ribbons, one per color, each brightest
// at its center line.
func paintAurora(colors []Color) PaintFunc {
	return func(img *ebiten.Image) {
		b := img.Bounds()
		w, h := float32(b.Dx()), b.Dy()
		n := len(colors)
		for i, c := range colors {
			center := (float64(i) + 0.5) / float64(n) * 0.8
			width := 0.35
			for y := 0; y < h; y += 2 {
				t := float64(y) / float64(h)
				d := (t - center) / width
				a := math.Exp(-d*d*4) * 0.6
				if a < 0.01 {
					continue
				}
				vector.DrawFilledRect(img, 0, float32(y), w, 2, c.WithAlpha(a).toNRGBA(), false)
			}
		}
		// Vertical curtain folds.
		for x := float32(0); x < w; x += 6 {
			a := 0.08 + 0.08*math.Sin(float64(x)*0.045)
			vector.DrawFilledRect(img, x, 0, 3, float32(h), ColorWhite.WithAlpha(a).toNRGBA(), false)
		}
	}
}

// buildAurora returns a shimmering aurora band across the top of the stage.
func buildAurora(tc *ThemeContext) *Node {
	p := tc.Params.(*AuroraParams)
	st := tc.Stage()
	bandH := st.Height * 0.6
	surf := NewSurface(int(st.Width), int(bandH), paintAurora(p.colors))
	node := NewSurfaceNode("aurora", surf)
	node.Width, node.Height = st.Width, bandH
	node.BlendMode = BlendScreen
	node.Alpha = p.Intensity

	var t float64
	task := tc.Host.Tasks().Every(func(dt float64) bool {
		if node.IsDisposed() {
			return false
		}
		t += dt
		phase := 2 * math.Pi * t / p.PeriodSec
		node.Alpha = p.Intensity * (0.75 + 0.25*math.Sin(phase))
		node.X = math.Sin(phase*0.5) * st.Width * 0.03
		return true
	})
	node.OnStop = task.Cancel
	return node
}

type fogBank struct {
	x, y, r, speed float64
}

// buildFog returns drifting soft fog banks along the lower half of the stage.
func buildFog(tc *ThemeContext) *Node {
	p := tc.Params.(*FogParams)
	st := tc.Stage()
	rng := tc.Rand

	banks := make([]fogBank, p.Banks)
	for i := range banks {
		banks[i] = fogBank{
			x:     rng.Float64() * st.Width,
			y:     st.Height * Range{0.45, 0.95}.Random(rng),
			r:     st.Width * Range{0.15, 0.3}.Random(rng),
			speed: p.Drift * Range{0.5, 1.5}.Random(rng),
		}
	}

	node := NewDrawNode("fog", func(dst *ebiten.Image, _ *Node, alpha float64) {
		for _, b := range banks {
			// Concentric layers approximate a radial falloff.
			for k := 4; k >= 1; k-- {
				r := b.r * float64(k) / 4
				a := p.Density * alpha * 0.12
				vector.DrawFilledCircle(dst, float32(b.x), float32(b.y), float32(r), p.color.WithAlpha(a).toNRGBA(), true)
			}
		}
	})
	node.X, node.Y, node.Width, node.Height = st.X, st.Y, st.Width, st.Height

	task := tc.Host.Tasks().Every(func(dt float64) bool {
		if node.IsDisposed() {
			return false
		}
		for i := range banks {
			b := &banks[i]
			b.x += b.speed * dt
			if b.x-b.r > st.Width {
				b.x = -b.r
			}
		}
		return true
	})
	node.OnStop = task.Cancel
	return node
}

// cssFallbackCap bounds how many particles a static fallback picture holds.
const cssFallbackCap = 160

// buildStaticParticles renders a particle theme as a still picture: a
// scatter of particles from the theme's own factory painted once onto a
// surface. Used when config forces a particle theme into css-only mode.
func buildStaticParticles(spawn ParticleFactory) OverlayBuilder {
	return func(tc *ThemeContext) *Node {
		st := tc.Stage()
		n := cssFallbackCap
		if em, ok := tc.Params.(emitter); ok {
			n = min(n, em.EmissionTuning().MaxParticles)
		}
		n = tc.Scaler.Count(n)

		ps := make([]*Particle, 0, n)
		for range n {
			pt := spawn(tc)
			pt.X = tc.Rand.Float64() * st.Width
			pt.Y = tc.Rand.Float64() * st.Height
			pt.Alpha = pt.StartAlpha
			pt.Steer = nil
			ps = append(ps, pt)
		}
		surf := NewSurface(int(st.Width), int(st.Height), func(img *ebiten.Image) {
			for _, pt := range ps {
				drawParticle(img, pt)
			}
		})
		node := NewSurfaceNode(tc.Name+"-still", surf)
		node.Width, node.Height = st.Width, st.Height
		return node
	}
}
