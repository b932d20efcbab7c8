package lumen

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// ShockwaveParams configures an expanding ring.
type ShockwaveParams struct {
	DurationMs int     `yaml:"durationMs"`
	X          float64 `yaml:"x"`      // center, fraction of stage width
	Y          float64 `yaml:"y"`      // center, fraction of stage height
	Radius     float64 `yaml:"radius"` // px; zero means 60% of the larger stage side
	Thickness  float64 `yaml:"thickness"`
	Color      string  `yaml:"color"`

	color Color
}

// NewShockwaveParams returns the shockwave defaults.
func NewShockwaveParams() Params {
	return &ShockwaveParams{DurationMs: 900, X: 0.5, Y: 0.5, Thickness: 36, Color: "#bfe6ff"}
}

func (p *ShockwaveParams) Validate() error {
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if err := unitRange("x", p.X); err != nil {
		return err
	}
	if err := unitRange("y", p.Y); err != nil {
		return err
	}
	if p.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %v", p.Radius)
	}
	if p.Thickness <= 0 {
		return fmt.Errorf("thickness must be positive, got %v", p.Thickness)
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}

type shockwaveState struct {
	cx, cy    float64
	radius    float64
	thickness float64
	color     Color
	progress  float64
}

// ring draws the wave as a stroked circle when the shader is unavailable.
func (s *shockwaveState) ring(dst *ebiten.Image, _ *Node, alpha float64) {
	a := (1 - s.progress) * alpha * s.color.A
	if a <= 0 {
		return
	}
	r := float32(s.progress * s.radius)
	if r <= 0 {
		return
	}
	vector.StrokeCircle(dst, float32(s.cx), float32(s.cy), r,
		float32(s.thickness*0.5), s.color.WithAlpha(a).toNRGBA(), true)
}

func playShockwave(ctx *EffectContext) error {
	p := ctx.Params.(*ShockwaveParams)
	dur := ctx.Duration(p.DurationMs)
	inst := ctx.NewInstance(dur + timeoutSlack)

	stage := ctx.StageRect()
	st := &shockwaveState{
		cx:        stage.Width * p.X,
		cy:        stage.Height * p.Y,
		radius:    p.Radius,
		thickness: p.Thickness,
		color:     p.color,
	}
	if st.radius == 0 {
		st.radius = 0.6 * math.Max(stage.Width, stage.Height)
	}

	sh := NewShaderOverlay(ShaderShockwave, st.ring)
	sh.SetVec2("Center", st.cx, st.cy)
	sh.SetFloat("MaxRadius", st.radius)
	sh.SetFloat("Thickness", st.thickness)
	sh.SetColor("Tint", st.color)
	node := inst.Attach(NewShaderNode("shockwave", sh, stage))
	node.BlendMode = BlendAdd

	total := dur.Seconds()
	var elapsed float64
	inst.Run(func(dt float64) bool {
		elapsed += dt
		st.progress = clamp01(elapsed / total)
		sh.SetFloat("Progress", st.progress)
		return elapsed < total
	})
	return nil
}
