package lumen

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// FireParams configures a burst of rising embers along the bottom edge with
// a glow band behind them.
type FireParams struct {
	DurationMs int      `yaml:"durationMs"`
	Rate       float64  `yaml:"rate"` // embers per second
	Colors     []string `yaml:"colors"`
	SizeMin    float64  `yaml:"sizeMin"`
	SizeMax    float64  `yaml:"sizeMax"`
	Rise       float64  `yaml:"rise"` // upward speed in px/s
	LifeMs     int      `yaml:"lifeMs"`
	Glow       float64  `yaml:"glow"` // peak opacity of the glow band
	GlowColor  string   `yaml:"glowColor"`

	colors    []Color
	glowColor Color
}

// NewFireParams returns the fire defaults.
func NewFireParams() Params {
	return &FireParams{
		DurationMs: 2500,
		Rate:       90,
		Colors:     []string{"#ffb347", "#ff5e13", "#ffd966", "#ff7b00"},
		SizeMin:    2,
		SizeMax:    5,
		Rise:       160,
		LifeMs:     1600,
		Glow:       0.55,
		GlowColor:  "#ff5e13",
	}
}

func (p *FireParams) Validate() error {
	if err := positiveMs("durationMs", p.DurationMs); err != nil {
		return err
	}
	if err := positiveMs("lifeMs", p.LifeMs); err != nil {
		return err
	}
	if p.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", p.Rate)
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size range [%v, %v] is invalid", p.SizeMin, p.SizeMax)
	}
	if err := unitRange("glow", p.Glow); err != nil {
		return err
	}
	colors, err := parseColorList("colors", p.Colors)
	if err != nil {
		return err
	}
	gc, err := ParseColor(p.GlowColor)
	if err != nil {
		return fmt.Errorf("glowColor: %w", err)
	}
	p.colors, p.glowColor = colors, gc
	return nil
}

// paintGlowBand fills img with a vertical gradient, transparent at the top
// and opaque at the bottom.
func paintGlowBand(c Color) PaintFunc {
	return func(img *ebiten.Image) {
		b := img.Bounds()
		w, h := float32(b.Dx()), b.Dy()
		for y := 0; y < h; y++ {
			t := float64(y) / float64(max(h-1, 1))
			vector.DrawFilledRect(img, 0, float32(y), w, 1, c.WithAlpha(t*t).toNRGBA(), false)
		}
	}
}

func playFire(ctx *EffectContext) error {
	p := ctx.Params.(*FireParams)
	dur := ctx.Duration(p.DurationMs)
	life := ctx.Duration(p.LifeMs)
	inst := ctx.NewInstance(dur + life + timeoutSlack)

	w, h := ctx.Stage()
	bandH := h * 0.3
	glow := inst.Attach(NewSurfaceNode("fire-glow", NewSurface(int(w), int(bandH), paintGlowBand(p.glowColor))))
	glow.Y = h - bandH
	glow.Width, glow.Height = w, bandH
	glow.BlendMode = BlendAdd
	glow.Alpha = 0

	rate := ctx.Scaler.Rate(p.Rate)
	total := dur.Seconds()
	size := Range{p.SizeMin, p.SizeMax}
	rng := ctx.Rand
	tag := inst.Tag()

	var elapsed, acc float64
	inst.Run(func(dt float64) bool {
		elapsed += dt
		if elapsed < total {
			acc += dt * rate
			n := math.Floor(acc)
			acc -= n
			for range int(n) {
				inst.Spawn(&Particle{
					Kind:        KindGlow,
					X:           rng.Float64() * w,
					Y:           h + 4,
					VX:          (rng.Float64() - 0.5) * 30,
					VY:          -p.Rise * Range{0.6, 1.3}.Random(rng),
					AY:          -40,
					MaxLife:     life.Seconds() * Range{0.5, 1}.Random(rng),
					Size:        size.Random(rng),
					StartAlpha:  1,
					EndAlpha:    0,
					Color:       p.colors[rng.IntN(len(p.colors))],
					BlendMode:   BlendAdd,
					Wobble:      Range{10, 40}.Random(rng),
					WobbleFreq:  Range{2, 5}.Random(rng),
					Phase:       rng.Float64() * 2 * math.Pi,
					Twinkle:     0.3,
					TwinkleFreq: Range{6, 12}.Random(rng),
				})
			}
		}
		glow.Alpha = p.Glow * envelope(elapsed, total, 0.3)
		return elapsed < total || ctx.Pool.Count(tag) > 0
	})
	return nil
}

// envelope ramps 0→1 over the first ramp seconds, holds, and ramps back to 0
// over the last ramp seconds of total.
func envelope(t, total, ramp float64) float64 {
	if t <= 0 || t >= total {
		return 0
	}
	ramp = math.Min(ramp, total/2)
	if ramp <= 0 {
		return 1
	}
	return clamp01(math.Min(t/ramp, (total-t)/ramp))
}
