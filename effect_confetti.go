package lumen

import (
	"fmt"
	"math"
)

// ConfettiParams configures a one-shot confetti burst.
type ConfettiParams struct {
	Count    int      `yaml:"count"`
	Colors   []string `yaml:"colors"`
	OriginX  float64  `yaml:"originX"` // fraction of stage width
	OriginY  float64  `yaml:"originY"` // fraction of stage height
	Spread   float64  `yaml:"spread"`  // cone width in degrees
	SpeedMin float64  `yaml:"speedMin"`
	SpeedMax float64  `yaml:"speedMax"`
	Gravity  float64  `yaml:"gravity"`
	SizeMin  float64  `yaml:"sizeMin"`
	SizeMax  float64  `yaml:"sizeMax"`
	LifeMs   int      `yaml:"lifeMs"`

	colors []Color
}

// NewConfettiParams returns the confetti defaults.
func NewConfettiParams() Params {
	return &ConfettiParams{
		Count:    140,
		Colors:   []string{"#ff4d6d", "#ffd166", "#06d6a0", "#118ab2", "#f8f9fa", "#c77dff"},
		OriginX:  0.5,
		OriginY:  0.6,
		Spread:   70,
		SpeedMin: 380,
		SpeedMax: 720,
		Gravity:  620,
		SizeMin:  4,
		SizeMax:  8,
		LifeMs:   3200,
	}
}

func (p *ConfettiParams) Validate() error {
	if p.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", p.Count)
	}
	colors, err := parseColorList("colors", p.Colors)
	if err != nil {
		return err
	}
	if err := unitRange("originX", p.OriginX); err != nil {
		return err
	}
	if err := unitRange("originY", p.OriginY); err != nil {
		return err
	}
	if p.Spread < 0 || p.Spread > 360 {
		return fmt.Errorf("spread must be in [0, 360], got %v", p.Spread)
	}
	if p.SpeedMin < 0 || p.SpeedMax < p.SpeedMin {
		return fmt.Errorf("speed range [%v, %v] is invalid", p.SpeedMin, p.SpeedMax)
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size range [%v, %v] is invalid", p.SizeMin, p.SizeMax)
	}
	if err := positiveMs("lifeMs", p.LifeMs); err != nil {
		return err
	}
	p.colors = colors
	return nil
}

func playConfetti(ctx *EffectContext) error {
	p := ctx.Params.(*ConfettiParams)
	life := ctx.Duration(p.LifeMs)
	inst := ctx.NewInstance(life + timeoutSlack)

	w, h := ctx.Stage()
	ox, oy := w*p.OriginX, h*p.OriginY
	spread := p.Spread * math.Pi / 180
	speed := Range{p.SpeedMin, p.SpeedMax}
	size := Range{p.SizeMin, p.SizeMax}
	rng := ctx.Rand

	n := ctx.Scaler.Count(p.Count)
	batch := make([]*Particle, 0, n)
	for range n {
		angle := -math.Pi/2 + (rng.Float64()-0.5)*spread
		v := speed.Random(rng)
		batch = append(batch, &Particle{
			Kind:       KindConfetti,
			X:          ox,
			Y:          oy,
			VX:         math.Cos(angle) * v,
			VY:         math.Sin(angle) * v,
			AY:         p.Gravity,
			Drag:       0.9,
			MaxLife:    life.Seconds() * Range{0.7, 1}.Random(rng),
			Size:       size.Random(rng),
			StartAlpha: 1,
			EndAlpha:   0.6,
			Color:      p.colors[rng.IntN(len(p.colors))],
			Rotation:   rng.Float64() * 2 * math.Pi,
			Spin:       (rng.Float64() - 0.5) * 12,
			Wobble:     Range{20, 60}.Random(rng),
			WobbleFreq: Range{3, 6}.Random(rng),
			Phase:      rng.Float64() * 2 * math.Pi,
		})
	}
	inst.Spawn(batch...)

	tag := inst.Tag()
	inst.Run(func(float64) bool {
		return ctx.Pool.Count(tag) > 0
	})
	return nil
}
