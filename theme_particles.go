package lumen

import (
	"math"
)

// depthOf maps a size within [lo, hi] to a 0..1 depth cue; larger particles
// read as nearer, so they move faster and look brighter.
func depthOf(size, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return clamp01((size - lo) / (hi - lo))
}

// upwindSpan widens the spawn line on the upwind side, staying inside the
// off-stage margin so nothing is pruned on its first step.
func upwindSpan(width, wind float64) (x0, x1 float64) {
	const lead = offStageMargin * 0.75
	switch {
	case wind > 0:
		return -lead, width
	case wind < 0:
		return 0, width + lead
	default:
		return 0, width
	}
}

func spawnFlake(tc *ThemeContext) *Particle {
	p := tc.Params.(*SnowParams)
	st := tc.Stage()
	rng := tc.Rand

	size := Range{p.SizeMin, p.SizeMax}.Random(rng)
	depth := depthOf(size, p.SizeMin, p.SizeMax)
	alpha := 0.45 + 0.55*depth
	x0, x1 := upwindSpan(st.Width, p.Wind)
	return &Particle{
		Kind:       KindFlake,
		X:          x0 + rng.Float64()*(x1-x0),
		Y:          -size * 2,
		VX:         p.Wind * (0.5 + depth),
		VY:         lerp(p.FallMin, p.FallMax, depth),
		Size:       size,
		StartAlpha: alpha,
		EndAlpha:   alpha,
		Color:      p.color,
		Wobble:     p.Sway,
		WobbleFreq: Range{0.8, 2}.Random(rng),
		Phase:      rng.Float64() * 2 * math.Pi,
	}
}

func spawnRaindrop(tc *ThemeContext) *Particle {
	p := tc.Params.(raining).rain()
	st := tc.Stage()
	rng := tc.Rand

	angle := p.Angle * math.Pi / 180
	v := Range{p.SpeedMin, p.SpeedMax}.Random(rng)
	x0, x1 := upwindSpan(st.Width, math.Sin(angle))
	return &Particle{
		Kind:       KindStreak,
		X:          x0 + rng.Float64()*(x1-x0),
		Y:          -20,
		VX:         math.Sin(angle) * v,
		VY:         math.Cos(angle) * v,
		Size:       p.Length * Range{0.8, 1.3}.Random(rng),
		StartAlpha: 0.6,
		EndAlpha:   0.6,
		Color:      p.color,
	}
}

func spawnLeaf(tc *ThemeContext) *Particle {
	p := tc.Params.(*LeavesParams)
	st := tc.Stage()
	rng := tc.Rand

	size := Range{p.SizeMin, p.SizeMax}.Random(rng)
	return &Particle{
		Kind:       KindPetal,
		X:          rng.Float64() * st.Width,
		Y:          -size * 2,
		VX:         p.Wind * Range{0.3, 1.2}.Random(rng),
		VY:         Range{p.FallMin, p.FallMax}.Random(rng),
		Size:       size,
		StartAlpha: 0.95,
		EndAlpha:   0.95,
		Color:      p.colors[rng.IntN(len(p.colors))],
		Rotation:   rng.Float64() * 2 * math.Pi,
		Spin:       (rng.Float64()*2 - 1) * p.Spin,
		Wobble:     Range{30, 70}.Random(rng),
		WobbleFreq: Range{1, 2.5}.Random(rng),
		Phase:      rng.Float64() * 2 * math.Pi,
	}
}

func spawnEmber(tc *ThemeContext) *Particle {
	p := tc.Params.(*EmbersParams)
	st := tc.Stage()
	rng := tc.Rand

	return &Particle{
		Kind:        KindGlow,
		X:           rng.Float64() * st.Width,
		Y:           st.Height + 4,
		VX:          (rng.Float64() - 0.5) * 20,
		VY:          -p.Rise * Range{0.5, 1.4}.Random(rng),
		MaxLife:     float64(p.LifeMs) / 1000 * Range{0.5, 1}.Random(rng),
		Size:        Range{1.2, 3}.Random(rng),
		StartAlpha:  1,
		EndAlpha:    0,
		Color:       p.colors[rng.IntN(len(p.colors))],
		BlendMode:   BlendAdd,
		Wobble:      Range{8, 30}.Random(rng),
		WobbleFreq:  Range{1, 3}.Random(rng),
		Phase:       rng.Float64() * 2 * math.Pi,
		Twinkle:     0.4,
		TwinkleFreq: Range{4, 9}.Random(rng),
	}
}

func spawnFirefly(tc *ThemeContext) *Particle {
	p := tc.Params.(*FirefliesParams)
	st := tc.Stage()
	rng := tc.Rand

	return &Particle{
		Kind:        KindGlow,
		X:           rng.Float64() * st.Width,
		Y:           st.Height * Range{0.3, 1}.Random(rng),
		VX:          (rng.Float64() - 0.5) * p.Speed,
		VY:          (rng.Float64() - 0.5) * p.Speed,
		Drag:        0.6,
		MaxLife:     float64(p.LifeMs) / 1000 * Range{0.6, 1}.Random(rng),
		Size:        Range{1.5, 3}.Random(rng),
		StartAlpha:  0.95,
		EndAlpha:    0.2,
		Color:       p.color,
		BlendMode:   BlendAdd,
		Phase:       rng.Float64() * 2 * math.Pi,
		Twinkle:     0.75,
		TwinkleFreq: Range{1.5, 3.5}.Random(rng),
		Steer:       fireflySteer(tc, p),
	}
}

// fireflySteer wanders and, once the pointer has been seen, pulls the
// particle toward it within the influence radius.
func fireflySteer(tc *ThemeContext, p *FirefliesParams) func(*Particle, float64) {
	return func(pt *Particle, dt float64) {
		rng := tc.Rand
		pt.VX += (rng.Float64() - 0.5) * p.Speed * 4 * dt
		pt.VY += (rng.Float64() - 0.5) * p.Speed * 4 * dt
		if !tc.HasPointer || p.Radius <= 0 {
			return
		}
		dx, dy := tc.Pointer.X-pt.X, tc.Pointer.Y-pt.Y
		d := math.Hypot(dx, dy)
		if d < 1 || d > p.Radius {
			return
		}
		k := p.Attraction * (1 - d/p.Radius) * p.Speed * 4
		pt.VX += dx / d * k * dt
		pt.VY += dy / d * k * dt
	}
}

func spawnBubble(tc *ThemeContext) *Particle {
	p := tc.Params.(*BubblesParams)
	st := tc.Stage()
	rng := tc.Rand

	size := Range{p.SizeMin, p.SizeMax}.Random(rng)
	return &Particle{
		Kind:       KindRing,
		X:          rng.Float64() * st.Width,
		Y:          st.Height + size,
		VY:         -p.Rise * Range{0.6, 1.4}.Random(rng) * (1 + size/p.SizeMax) / 2,
		Size:       size,
		StartAlpha: 0.7,
		EndAlpha:   0.7,
		Color:      p.color,
		Wobble:     Range{10, 30}.Random(rng),
		WobbleFreq: Range{1, 2}.Random(rng),
		Phase:      rng.Float64() * 2 * math.Pi,
	}
}
