package lumen

import (
	"fmt"
	"time"
)

// timeoutSlack is added to every recipe's nominal duration before arming its
// hard timeout, so the timeout only fires when the animation has stalled.
const timeoutSlack = 500 * time.Millisecond

// DefaultEffectDefinitions returns the built-in effect recipes.
func DefaultEffectDefinitions() []EffectDefinition {
	return []EffectDefinition{
		{Name: "fade", Stacking: StackExclusive, Params: NewFadeParams, Handler: playFade},
		{Name: "flash", Stacking: StackAdditive, Params: NewFlashParams, Handler: playFlash},
		{Name: "confetti", Stacking: StackAdditive, Params: NewConfettiParams, Handler: playConfetti},
		{Name: "fire", Stacking: StackAdditive, Params: NewFireParams, Handler: playFire},
		{Name: "sparkles", Stacking: StackAdditive, Params: NewSparklesParams, Handler: playSparkles},
		{Name: "glitch", Stacking: StackExclusive, Params: NewGlitchParams, Handler: playGlitch},
		{Name: "shockwave", Stacking: StackAdditive, Params: NewShockwaveParams, Handler: playShockwave},
	}
}

// DefaultEffectAliases returns the built-in aliases. The two fade variants
// are retired: they still play but are no longer listed.
func DefaultEffectAliases() []EffectAlias {
	return []EffectAlias{
		{Name: "fadeblack", Target: "fade", Overrides: map[string]any{"color": "black"}, Retired: true},
		{Name: "fadewhite", Target: "fade", Overrides: map[string]any{"color": "white"}, Retired: true},
		{Name: "celebrate", Target: "confetti", Overrides: map[string]any{"count": 220, "spread": 120.0}},
	}
}

// DefaultEffects returns the built-in effect table.
func DefaultEffects() *EffectTable {
	return MustEffectTable(DefaultEffectDefinitions(), DefaultEffectAliases())
}

// --- param helpers ---

func parseColorList(field string, names []string) ([]Color, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: at least one color required", field)
	}
	out := make([]Color, len(names))
	for i, s := range names {
		c, err := ParseColor(s)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = c
	}
	return out, nil
}

func positiveMs(field string, ms int) error {
	if ms <= 0 {
		return fmt.Errorf("%s must be positive, got %d", field, ms)
	}
	return nil
}

func unitRange(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", field, v)
	}
	return nil
}

func seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}
