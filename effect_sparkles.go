package lumen

import (
	"fmt"
	"math"
)

// SparklesParams configures twinkling points scattered over the stage.
type SparklesParams struct {
	Count      int     `yaml:"count"`
	DurationMs int     `yaml:"durationMs"`
	Color      string  `yaml:"color"`
	SizeMin    float64 `yaml:"sizeMin"`
	SizeMax    float64 `yaml:"sizeMax"`
	Blend      string  `yaml:"blend"`

	color Color
}

// NewSparklesParams returns the sparkles defaults.
func NewSparklesParams() Params {
	return &SparklesParams{
		Count:      70,
		DurationMs: 1800,
		Color:      "#fff6b0",
		SizeMin:    1.5,
		SizeMax:    3.5,
		Blend:      "add",
	}
}

func (p *SparklesParams) Validate() error {
	if p.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", p.Count)
	}
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size range [%v, %v] is invalid", p.SizeMin, p.SizeMax)
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}

func playSparkles(ctx *EffectContext) error {
	p := ctx.Params.(*SparklesParams)
	dur := ctx.Duration(p.DurationMs)
	inst := ctx.NewInstance(dur + timeoutSlack)

	w, h := ctx.Stage()
	blend := parseBlendMode(p.Blend)
	size := Range{p.SizeMin, p.SizeMax}
	rng := ctx.Rand

	n := ctx.Scaler.Count(p.Count)
	batch := make([]*Particle, 0, n)
	for range n {
		batch = append(batch, &Particle{
			Kind:        KindGlow,
			X:           rng.Float64() * w,
			Y:           rng.Float64() * h,
			VY:          -Range{4, 18}.Random(rng),
			MaxLife:     dur.Seconds() * Range{0.45, 1}.Random(rng),
			Size:        size.Random(rng),
			StartAlpha:  1,
			EndAlpha:    0,
			Color:       p.color,
			BlendMode:   blend,
			Twinkle:     0.8,
			TwinkleFreq: Range{8, 14}.Random(rng),
			Phase:       rng.Float64() * 2 * math.Pi,
		})
	}
	inst.Spawn(batch...)

	tag := inst.Tag()
	inst.Run(func(float64) bool {
		return ctx.Pool.Count(tag) > 0
	})
	return nil
}
