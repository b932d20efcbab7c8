package lumen

import (
	"fmt"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// GlitchParams configures the glitch effect.
type GlitchParams struct {
	DurationMs int     `yaml:"durationMs"`
	Intensity  float64 `yaml:"intensity"`
	BandHeight float64 `yaml:"bandHeight"` // fallback band height in px
}

// NewGlitchParams returns the glitch defaults.
func NewGlitchParams() Params {
	return &GlitchParams{DurationMs: 700, Intensity: 0.8, BandHeight: 12}
}

func (p *GlitchParams) Validate() error {
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if err := unitRange("intensity", p.Intensity); err != nil {
		return err
	}
	if p.BandHeight < 1 {
		return fmt.Errorf("bandHeight must be at least 1, got %v", p.BandHeight)
	}
	return nil
}

var glitchPalette = [...]Color{
	{1, 0, 0.3, 1},
	{0, 1, 0.9, 1},
	{0.2, 0.3, 1, 1},
}

// glitchBands draws offset color bands: the picture without the shader.
func glitchBands(rng *rand.Rand, bandH float64, intensity *float64) DrawFunc {
	return func(dst *ebiten.Image, n *Node, alpha float64) {
		k := *intensity
		if k <= 0 {
			return
		}
		rows := int(n.Height / bandH)
		for i := 0; i < rows; i++ {
			if rng.Float64() > k*0.35 {
				continue
			}
			shift := (rng.Float64() - 0.5) * n.Width * 0.1 * k
			c := glitchPalette[rng.IntN(len(glitchPalette))].WithAlpha(0.35 * k * alpha)
			vector.DrawFilledRect(dst,
				float32(n.X+shift), float32(n.Y+float64(i)*bandH),
				float32(n.Width), float32(bandH),
				c.toNRGBA(), false)
		}
	}
}

func playGlitch(ctx *EffectContext) error {
	p := ctx.Params.(*GlitchParams)
	dur := ctx.Duration(p.DurationMs)
	inst := ctx.NewInstance(dur + timeoutSlack)

	intensity := p.Intensity
	stage := ctx.StageRect()
	sh := NewShaderOverlay(ShaderGlitch, glitchBands(ctx.Rand, p.BandHeight, &intensity))
	sh.SetVec2("Size", stage.Width, stage.Height)
	inst.Attach(NewShaderNode("glitch", sh, stage))

	total := dur.Seconds()
	var elapsed float64
	inst.Run(func(dt float64) bool {
		elapsed += dt
		intensity = p.Intensity * envelope(elapsed, total, total*0.15)
		sh.SetFloat("Time", elapsed)
		sh.SetFloat("Intensity", intensity)
		return elapsed < total
	})
	return nil
}
