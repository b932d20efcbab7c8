package lumen

import (
	"fmt"

	"github.com/tanema/gween/ease"
)

// FlashParams configures a short additive flash. The flash starts at Color
// and cools toward Afterglow while it fades; an empty Afterglow keeps Color.
type FlashParams struct {
	Color      string  `yaml:"color"`
	Afterglow  string  `yaml:"afterglow"`
	DurationMs int     `yaml:"durationMs"`
	Intensity  float64 `yaml:"intensity"`

	color     Color
	afterglow Color
}

// NewFlashParams returns the flash defaults.
func NewFlashParams() Params {
	return &FlashParams{Color: "white", Afterglow: "#ffd9a0", DurationMs: 280, Intensity: 0.85}
}

func (p *FlashParams) Validate() error {
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if err := unitRange("intensity", p.Intensity); err != nil {
		return err
	}
	p.color, p.afterglow = c, c
	if p.Afterglow != "" {
		if p.afterglow, err = ParseColor(p.Afterglow); err != nil {
			return fmt.Errorf("afterglow: %w", err)
		}
	}
	return nil
}

func playFlash(ctx *EffectContext) error {
	p := ctx.Params.(*FlashParams)
	d := ctx.Duration(p.DurationMs)

	inst := ctx.NewInstance(d + timeoutSlack)
	node := inst.Attach(NewRect("flash", p.color, ctx.StageRect()))
	node.BlendMode = BlendAdd
	node.Alpha = p.Intensity

	inst.Animate(
		TweenAlpha(node, 0, seconds(d), ease.OutQuad),
		TweenTint(node, p.afterglow, seconds(d), ease.OutCubic),
	)
	return nil
}
