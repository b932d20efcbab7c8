package lumen

import (
	"math"
)

// Tag identifies the emitter that owns a particle. Bulk removal is scoped by
// tag so one emitter never clears another's particles.
type Tag string

// ThemeTag marks every particle spawned by the active theme.
const ThemeTag Tag = "theme"

// IsTheme reports whether the tag belongs to the theme emitter.
func (t Tag) IsTheme() bool {
	return t == ThemeTag
}

// ParticleKind selects how a particle is drawn.
type ParticleKind uint8

const (
	KindDot      ParticleKind = iota // filled circle
	KindFlake                        // soft circle with a brighter core
	KindStreak                       // line along the velocity vector
	KindPetal                        // rotated rectangle (leaves, petals)
	KindConfetti                     // rotated flat rectangle with flip shading
	KindGlow                         // additive circle (embers, fireflies, sparkles)
	KindRing                         // hollow circle (bubbles)
)

// offStageMargin is how far past the stage edge a particle may travel before
// it is pruned.
const offStageMargin = 40.0

// fadedAlpha is the opacity below which an aging particle counts as gone.
const fadedAlpha = 0.01

// Particle is one simulation entity owned by the Pool.
type Particle struct {
	Tag  Tag
	Kind ParticleKind

	X, Y   float64
	VX, VY float64
	AX, AY float64 // constant acceleration (gravity, wind)
	Drag   float64 // fraction of velocity lost per second

	Age     float64
	MaxLife float64 // seconds; zero means no age limit

	Size       float64
	StartAlpha float64
	EndAlpha   float64
	Alpha      float64
	Color      Color
	BlendMode  BlendMode

	Rotation float64
	Spin     float64 // radians per second

	// Horizontal sway: X += sin(Age*WobbleFreq + Phase) * Wobble * dt.
	Wobble     float64
	WobbleFreq float64
	Phase      float64

	// Twinkle modulates alpha between (1-Twinkle) and 1 at TwinkleFreq.
	Twinkle     float64
	TwinkleFreq float64

	// Steer, when set, runs before integration every frame.
	Steer func(p *Particle, dt float64)
}

// update advances the particle by dt seconds.
func (p *Particle) update(dt float64) {
	p.Age += dt
	if p.Steer != nil {
		p.Steer(p, dt)
	}

	p.VX += p.AX * dt
	p.VY += p.AY * dt
	if p.Drag > 0 {
		k := math.Max(0, 1-p.Drag*dt)
		p.VX *= k
		p.VY *= k
	}
	p.X += p.VX * dt
	p.Y += p.VY * dt
	if p.Wobble != 0 {
		p.X += math.Sin(p.Age*p.WobbleFreq+p.Phase) * p.Wobble * dt
	}
	p.Rotation += p.Spin * dt

	alpha := p.StartAlpha
	if p.MaxLife > 0 {
		t := math.Min(p.Age/p.MaxLife, 1)
		alpha = lerp(p.StartAlpha, p.EndAlpha, t)
	}
	if p.Twinkle > 0 {
		w := 0.5 + 0.5*math.Sin(p.Age*p.TwinkleFreq+p.Phase)
		alpha *= 1 - p.Twinkle*w
	}
	p.Alpha = alpha
}

// expired reports whether the particle has run out of life, faded out, or
// left the stage.
func (p *Particle) expired(stage Rect) bool {
	if p.MaxLife > 0 && p.Age >= p.MaxLife {
		return true
	}
	if p.Age > 0 && p.Alpha <= fadedAlpha && p.StartAlpha > p.EndAlpha {
		return true
	}
	if stage.Width > 0 && stage.Height > 0 {
		m := offStageMargin + p.Size*2
		if !stage.Inset(m).Contains(p.X, p.Y) {
			return true
		}
	}
	return false
}

// Pool owns the live particles shared by every emitter. Mutation is
// append-or-filter only; emitters are kept apart by tags, not locks.
type Pool struct {
	particles []*Particle
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{particles: make([]*Particle, 0, 256)}
}

// Add appends particles. Nil entries are skipped. Panics on an untagged
// particle: every particle must carry exactly one owner tag.
func (p *Pool) Add(ps ...*Particle) {
	for _, pt := range ps {
		if pt == nil {
			continue
		}
		if pt.Tag == "" {
			panic("lumen: particle added without a tag")
		}
		if pt.Alpha == 0 {
			pt.Alpha = pt.StartAlpha
		}
		p.particles = append(p.particles, pt)
	}
}

// ClearAll removes every particle.
func (p *Pool) ClearAll() {
	clear(p.particles)
	p.particles = p.particles[:0]
}

// ClearWhere removes every particle matching pred and returns how many were
// removed.
func (p *Pool) ClearWhere(pred func(*Particle) bool) int {
	n := 0
	for _, pt := range p.particles {
		if !pred(pt) {
			p.particles[n] = pt
			n++
		}
	}
	removed := len(p.particles) - n
	clear(p.particles[n:])
	p.particles = p.particles[:n]
	return removed
}

// ClearTag removes every particle owned by tag.
func (p *Pool) ClearTag(tag Tag) int {
	return p.ClearWhere(func(pt *Particle) bool { return pt.Tag == tag })
}

// Len returns the total number of live particles.
func (p *Pool) Len() int {
	return len(p.particles)
}

// Count returns the number of live particles owned by tag.
func (p *Pool) Count(tag Tag) int {
	n := 0
	for _, pt := range p.particles {
		if pt.Tag == tag {
			n++
		}
	}
	return n
}

// Each calls fn for every live particle. fn must not add or remove particles.
func (p *Pool) Each(fn func(*Particle)) {
	for _, pt := range p.particles {
		fn(pt)
	}
}

// Update advances every particle by dt and prunes the expired ones.
func (p *Pool) Update(dt float64, stage Rect) {
	n := 0
	for _, pt := range p.particles {
		pt.update(dt)
		if pt.expired(stage) {
			continue
		}
		p.particles[n] = pt
		n++
	}
	clear(p.particles[n:])
	p.particles = p.particles[:n]
}
