package lumen

import (
	"fmt"

	"github.com/tanema/gween/ease"
)

// FadeParams configures the fade effect: a full-stage color wash that rises
// to Peak, holds, and falls back.
type FadeParams struct {
	Color      string  `yaml:"color"`
	DurationMs int     `yaml:"durationMs"`
	HoldMs     int     `yaml:"holdMs"`
	Peak       float64 `yaml:"peak"`

	color Color
}

// NewFadeParams returns the fade defaults.
func NewFadeParams() Params {
	return &FadeParams{Color: "black", DurationMs: 1200, HoldMs: 200, Peak: 1}
}

func (p *FadeParams) Validate() error {
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if p.HoldMs < 0 {
		return fmt.Errorf("holdMs must not be negative, got %d", p.HoldMs)
	}
	if p.Peak <= 0 || p.Peak > 1 {
		return fmt.Errorf("peak must be in (0, 1], got %v", p.Peak)
	}
	p.color = c
	return nil
}

func playFade(ctx *EffectContext) error {
	p := ctx.Params.(*FadeParams)
	total := ctx.Duration(p.DurationMs)
	hold := ctx.Duration(p.HoldMs)
	half := seconds(total / 2)

	inst := ctx.NewInstance(total + hold + timeoutSlack)
	node := inst.Attach(NewRect("fade", p.color, ctx.StageRect()))
	node.Alpha = 0

	steps := []func() Animation{
		func() Animation { return TweenAlpha(node, p.Peak, half, ease.InOutQuad) },
	}
	if hold > 0 {
		steps = append(steps, func() Animation { return TweenAlpha(node, p.Peak, seconds(hold), ease.Linear) })
	}
	steps = append(steps, func() Animation { return TweenAlpha(node, 0, half, ease.InOutQuad) })
	inst.Animate(NewTweenSequence(steps...))
	return nil
}
