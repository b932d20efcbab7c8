package lumen

import (
	"fmt"
	"math/rand/v2"
)

// ThemeContext is the capability set handed to theme factories and overlay
// builders. One context lives as long as its ActiveTheme.
type ThemeContext struct {
	Name   string
	Type   string
	Config map[string]any
	Params Params

	Scaler Scaler
	Host   *Host
	Pool   *Pool
	Rand   *rand.Rand

	// Pointer is the last pointer position seen while the theme was active.
	Pointer    Vec2
	HasPointer bool
}

// Stage returns the stage rectangle.
func (c *ThemeContext) Stage() Rect {
	return c.Host.Stage()
}

// ParticleFactory creates one theme particle. The machine tags it.
type ParticleFactory func(tc *ThemeContext) *Particle

// OverlayBuilder creates a theme's overlay node. Anything the node starts
// (tasks, timers) must be released by its OnStop hook.
type OverlayBuilder func(tc *ThemeContext) *Node

// ThemeType is the behavior a ThemeDefinition's Type selects.
type ThemeType struct {
	Name string
	// Spawn is nil for overlay-only types, which are always css-only.
	Spawn   ParticleFactory
	Overlay OverlayBuilder
}

// ThemeDefinition is the immutable record behind one theme name.
type ThemeDefinition struct {
	Name    string
	Type    string
	CSSOnly bool
	// Pointer themes receive pointer moves while active.
	Pointer bool
	Params  func() Params
	// Overlay replaces the type's overlay builder when set.
	Overlay OverlayBuilder
}

// ThemeTable maps theme names to definitions and types. Built once, then
// read-only.
type ThemeTable struct {
	order  []string
	defs   map[string]*ThemeDefinition
	types  map[string]*ThemeType
	remaps map[string]string
}

// NewThemeTable builds a table. remaps maps historical names to registered
// ones and is applied before lookup.
func NewThemeTable(types []ThemeType, defs []ThemeDefinition, remaps map[string]string) (*ThemeTable, error) {
	t := &ThemeTable{
		defs:   make(map[string]*ThemeDefinition, len(defs)),
		types:  make(map[string]*ThemeType, len(types)),
		remaps: make(map[string]string, len(remaps)),
	}
	for i := range types {
		typ := types[i]
		if _, dup := t.types[typ.Name]; dup {
			return nil, fmt.Errorf("%w: type %q", ErrDuplicateTheme, typ.Name)
		}
		if typ.Spawn == nil && typ.Overlay == nil {
			return nil, fmt.Errorf("lumen: theme type %q has neither particles nor overlay", typ.Name)
		}
		t.types[typ.Name] = &typ
	}
	for i := range defs {
		d := defs[i]
		if _, dup := t.defs[d.Name]; dup || d.Name == "" {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTheme, d.Name)
		}
		if d.Type == "" {
			d.Type = d.Name
		}
		if _, ok := t.types[d.Type]; !ok {
			return nil, fmt.Errorf("%w: %q has unknown type %q", ErrUnknownTheme, d.Name, d.Type)
		}
		t.defs[d.Name] = &d
		t.order = append(t.order, d.Name)
	}
	for from, to := range remaps {
		if _, ok := t.defs[to]; !ok {
			return nil, fmt.Errorf("%w: remap %q targets %q", ErrUnknownTheme, from, to)
		}
		if _, clash := t.defs[from]; clash {
			return nil, fmt.Errorf("%w: remap %q shadows a theme", ErrDuplicateTheme, from)
		}
		t.remaps[from] = to
	}
	return t, nil
}

// MustThemeTable is NewThemeTable that panics on error.
func MustThemeTable(types []ThemeType, defs []ThemeDefinition, remaps map[string]string) *ThemeTable {
	t, err := NewThemeTable(types, defs, remaps)
	if err != nil {
		panic(err)
	}
	return t
}

// Canonical applies the historical-name remap.
func (t *ThemeTable) Canonical(name string) string {
	if to, ok := t.remaps[name]; ok {
		return to
	}
	return name
}

// Lookup resolves name (after remap) to its definition and type.
func (t *ThemeTable) Lookup(name string) (*ThemeDefinition, *ThemeType, bool) {
	d, ok := t.defs[t.Canonical(name)]
	if !ok {
		return nil, nil, false
	}
	return d, t.types[d.Type], true
}

// Names returns the registered theme names in registration order.
func (t *ThemeTable) Names() []string {
	return append([]string(nil), t.order...)
}

// DefaultThemeTypes returns the built-in theme types.
func DefaultThemeTypes() []ThemeType {
	return []ThemeType{
		{Name: "snow", Spawn: spawnFlake},
		{Name: "rain", Spawn: spawnRaindrop},
		{Name: "storm", Spawn: spawnRaindrop, Overlay: buildLightning},
		{Name: "leaves", Spawn: spawnLeaf},
		{Name: "embers", Spawn: spawnEmber},
		{Name: "fireflies", Spawn: spawnFirefly},
		{Name: "bubbles", Spawn: spawnBubble},
		{Name: "aurora", Overlay: buildAurora},
		{Name: "fog", Overlay: buildFog},
	}
}

// DefaultThemeDefinitions returns the built-in themes.
func DefaultThemeDefinitions() []ThemeDefinition {
	return []ThemeDefinition{
		{Name: "snow", Params: NewSnowParams},
		{Name: "rain", Params: NewRainParams},
		{Name: "storm", Params: NewStormParams},
		{Name: "leaves", Params: NewLeavesParams},
		{Name: "embers", Params: NewEmbersParams},
		{Name: "fireflies", Pointer: true, Params: NewFirefliesParams},
		{Name: "sakura", Type: "leaves", Params: NewSakuraParams},
		{Name: "bubbles", Params: NewBubblesParams},
		{Name: "aurora", CSSOnly: true, Params: NewAuroraParams},
		{Name: "fog", CSSOnly: true, Params: NewFogParams},
		{Name: "blizzard", Type: "snow", Params: NewBlizzardParams},
	}
}

// DefaultThemeRemaps returns the historical theme names still accepted.
func DefaultThemeRemaps() map[string]string {
	return map[string]string{
		"snowfall":     "snow",
		"thunderstorm": "storm",
	}
}

// DefaultThemes returns the built-in theme table.
func DefaultThemes() *ThemeTable {
	return MustThemeTable(DefaultThemeTypes(), DefaultThemeDefinitions(), DefaultThemeRemaps())
}

// --- Param records ---

// Emission is the spawn tuning every particle theme carries.
type Emission struct {
	EmissionRate float64 `yaml:"emissionRate"` // particles per second
	MaxParticles int     `yaml:"maxParticles"`
}

// EmissionTuning returns the emission settings.
func (e Emission) EmissionTuning() Emission {
	return e
}

func (e Emission) validate() error {
	if e.EmissionRate < 0 {
		return fmt.Errorf("emissionRate must not be negative, got %v", e.EmissionRate)
	}
	if e.MaxParticles < 0 {
		return fmt.Errorf("maxParticles must not be negative, got %d", e.MaxParticles)
	}
	return nil
}

// emitter is implemented by every particle theme's params.
type emitter interface {
	EmissionTuning() Emission
}

// SnowParams configures snow and blizzard.
type SnowParams struct {
	Emission `yaml:",inline"`
	Color    string  `yaml:"color"`
	SizeMin  float64 `yaml:"sizeMin"`
	SizeMax  float64 `yaml:"sizeMax"`
	FallMin  float64 `yaml:"fallMin"` // px/s
	FallMax  float64 `yaml:"fallMax"`
	Wind     float64 `yaml:"wind"` // horizontal drift, px/s
	Sway     float64 `yaml:"sway"`

	color Color
}

// NewSnowParams returns the snow defaults.
func NewSnowParams() Params {
	return &SnowParams{
		Emission: Emission{EmissionRate: 18, MaxParticles: 220},
		Color:    "white",
		SizeMin:  1.5,
		SizeMax:  4,
		FallMin:  30,
		FallMax:  90,
		Wind:     12,
		Sway:     25,
	}
}

// NewBlizzardParams returns the blizzard defaults: snow, denser and windier.
func NewBlizzardParams() Params {
	return &SnowParams{
		Emission: Emission{EmissionRate: 70, MaxParticles: 600},
		Color:    "#eef6ff",
		SizeMin:  1,
		SizeMax:  3,
		FallMin:  120,
		FallMax:  260,
		Wind:     160,
		Sway:     40,
	}
}

func (p *SnowParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
		return err
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size range [%v, %v] is invalid", p.SizeMin, p.SizeMax)
	}
	if p.FallMin < 0 || p.FallMax < p.FallMin {
		return fmt.Errorf("fall range [%v, %v] is invalid", p.FallMin, p.FallMax)
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}

// RainParams configures rain.
type RainParams struct {
	Emission `yaml:",inline"`
	Color    string  `yaml:"color"`
	SpeedMin float64 `yaml:"speedMin"`
	SpeedMax float64 `yaml:"speedMax"`
	Angle    float64 `yaml:"angle"` // degrees from vertical, positive leans right
	Length   float64 `yaml:"length"`

	color Color
}

// NewRainParams returns the rain defaults.
func NewRainParams() Params {
	return &RainParams{
		Emission: Emission{EmissionRate: 90, MaxParticles: 420},
		Color:    "#a8c8ff",
		SpeedMin: 700,
		SpeedMax: 1000,
		Angle:    10,
		Length:   2.5,
	}
}

func (p *RainParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
		return err
	}
	if p.SpeedMin <= 0 || p.SpeedMax < p.SpeedMin {
		return fmt.Errorf("speed range [%v, %v] is invalid", p.SpeedMin, p.SpeedMax)
	}
	if p.Angle < -60 || p.Angle > 60 {
		return fmt.Errorf("angle must be in [-60, 60], got %v", p.Angle)
	}
	if p.Length <= 0 {
		return fmt.Errorf("length must be positive, got %v", p.Length)
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}

func (p *RainParams) rain() *RainParams {
	return p
}

// raining is implemented by params whose type spawns raindrops.
type raining interface {
	rain() *RainParams
}

// StormParams configures storm: rain plus lightning.
type StormParams struct {
	RainParams     `yaml:",inline"`
	LightningMinMs int     `yaml:"lightningMinMs"`
	LightningMaxMs int     `yaml:"lightningMaxMs"`
	FlashColor     string  `yaml:"flashColor"`
	FlashIntensity float64 `yaml:"flashIntensity"`

	flashColor Color
}

// NewStormParams returns the storm defaults.
func NewStormParams() Params {
	p := &StormParams{
		RainParams:     *NewRainParams().(*RainParams),
		LightningMinMs: 3000,
		LightningMaxMs: 9000,
		FlashColor:     "#e8f0ff",
		FlashIntensity: 0.7,
	}
	p.EmissionRate, p.MaxParticles = 140, 600
	p.Angle = 18
	return p
}

func (p *StormParams) Validate() error {
	if err := p.RainParams.Validate(); err != nil {
		return err
	}
	if err := positiveMs("lightningMinMs", p.LightningMinMs); err != nil {
		return err
	}
	if p.LightningMaxMs < p.LightningMinMs {
		return fmt.Errorf("lightningMaxMs %d is below lightningMinMs %d", p.LightningMaxMs, p.LightningMinMs)
	}
	if err := unitRange("flashIntensity", p.FlashIntensity); err != nil {
		return err
	}
	c, err := ParseColor(p.FlashColor)
	if err != nil {
		return fmt.Errorf("flashColor: %w", err)
	}
	p.flashColor = c
	return nil
}

// LeavesParams configures leaves and sakura.
type LeavesParams struct {
	Emission `yaml:",inline"`
	Colors   []string `yaml:"colors"`
	SizeMin  float64  `yaml:"sizeMin"`
	SizeMax  float64  `yaml:"sizeMax"`
	FallMin  float64  `yaml:"fallMin"`
	FallMax  float64  `yaml:"fallMax"`
	Wind     float64  `yaml:"wind"`
	Spin     float64  `yaml:"spin"` // max radians per second

	colors []Color
}

// NewLeavesParams returns the leaves defaults.
func NewLeavesParams() Params {
	return &LeavesParams{
		Emission: Emission{EmissionRate: 6, MaxParticles: 60},
		Colors:   []string{"#d2691e", "#b5651d", "#e9a03b", "#8b4513", "#c0392b"},
		SizeMin:  5,
		SizeMax:  9,
		FallMin:  40,
		FallMax:  90,
		Wind:     30,
		Spin:     3,
	}
}

// NewSakuraParams returns the sakura defaults: small pink petals.
func NewSakuraParams() Params {
	return &LeavesParams{
		Emission: Emission{EmissionRate: 10, MaxParticles: 120},
		Colors:   []string{"#ffc0cb", "#ffb7c5", "#fde2e4", "#f7a1b5"},
		SizeMin:  3,
		SizeMax:  6,
		FallMin:  25,
		FallMax:  60,
		Wind:     45,
		Spin:     4,
	}
}

func (p *LeavesParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
		return err
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size range [%v, %v] is invalid", p.SizeMin, p.SizeMax)
	}
	if p.FallMin < 0 || p.FallMax < p.FallMin {
		return fmt.Errorf("fall range [%v, %v] is invalid", p.FallMin, p.FallMax)
	}
	colors, err := parseColorList("colors", p.Colors)
	if err != nil {
		return err
	}
	p.colors = colors
	return nil
}

// EmbersParams configures embers rising from the bottom edge.
type EmbersParams struct {
	Emission `yaml:",inline"`
	Colors   []string `yaml:"colors"`
	Rise     float64  `yaml:"rise"`
	LifeMs   int      `yaml:"lifeMs"`

	colors []Color
}

// NewEmbersParams returns the embers defaults.
func NewEmbersParams() Params {
	return &EmbersParams{
		Emission: Emission{EmissionRate: 12, MaxParticles: 90},
		Colors:   []string{"#ff9a3c", "#ff6a00", "#ffd27f"},
		Rise:     70,
		LifeMs:   5000,
	}
}

func (p *EmbersParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
		return err
	}
	if err := positiveMs("lifeMs", p.LifeMs); err != nil {
		return err
	}
	colors, err := parseColorList("colors", p.Colors)
	if err != nil {
		return err
	}
	p.colors = colors
	return nil
}

// FirefliesParams configures fireflies, which drift toward the pointer.
type FirefliesParams struct {
	Emission   `yaml:",inline"`
	Color      string  `yaml:"color"`
	Speed      float64 `yaml:"speed"`
	Attraction float64 `yaml:"attraction"` // steering strength toward the pointer
	Radius     float64 `yaml:"radius"`     // pointer influence radius in px
	LifeMs     int     `yaml:"lifeMs"`

	color Color
}

// NewFirefliesParams returns the fireflies defaults.
func NewFirefliesParams() Params {
	return &FirefliesParams{
		Emission:   Emission{EmissionRate: 4, MaxParticles: 40},
		Color:      "#d4ff6a",
		Speed:      25,
		Attraction: 1.6,
		Radius:     220,
		LifeMs:     9000,
	}
}

func (p *FirefliesParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
		return err
	}
	if err := positiveMs("lifeMs", p.LifeMs); err != nil {
		return err
	}
	if p.Radius < 0 || p.Attraction < 0 {
		return fmt.Errorf("radius and attraction must not be negative")
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}

// BubblesParams configures rising bubbles.
type BubblesParams struct {
	Emission `yaml:",inline"`
	Color    string  `yaml:"color"`
	SizeMin  float64 `yaml:"sizeMin"`
	SizeMax  float64 `yaml:"sizeMax"`
	Rise     float64 `yaml:"rise"`

	color Color
}

// NewBubblesParams returns the bubbles defaults.
func NewBubblesParams() Params {
	return &BubblesParams{
		Emission: Emission{EmissionRate: 5, MaxParticles: 50},
		Color:    "#bde0fe",
		SizeMin:  6,
		SizeMax:  18,
		Rise:     50,
	}
}

func (p *BubblesParams) Validate() error {
	if err := p.Emission.validate(); err != nil {
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

// AuroraParams configures the aurora curtain overlay.
type AuroraParams struct {
	Colors    []string `yaml:"colors"`
	Intensity float64  `yaml:"intensity"`
	PeriodSec float64  `yaml:"periodSec"` // shimmer period

	colors []Color
}

// NewAuroraParams returns the aurora defaults.
func NewAuroraParams() Params {
	return &AuroraParams{
		Colors:    []string{"#00ffa3", "#00c2ff", "#a066ff"},
		Intensity: 0.45,
		PeriodSec: 8,
	}
}

func (p *AuroraParams) Validate() error {
	if err := unitRange("intensity", p.Intensity); err != nil {
		return err
	}
	if p.PeriodSec <= 0 {
		return fmt.Errorf("periodSec must be positive, got %v", p.PeriodSec)
	}
	colors, err := parseColorList("colors", p.Colors)
	if err != nil {
		return err
	}
	p.colors = colors
	return nil
}

// FogParams configures the drifting fog overlay.
type FogParams struct {
	Color   string  `yaml:"color"`
	Density float64 `yaml:"density"` // 0..1
	Drift   float64 `yaml:"drift"`   // px/s
	Banks   int     `yaml:"banks"`

	color Color
}

// NewFogParams returns the fog defaults.
func NewFogParams() Params {
	return &FogParams{Color: "#d8dde3", Density: 0.5, Drift: 14, Banks: 7}
}

func (p *FogParams) Validate() error {
	if err := unitRange("density", p.Density); err != nil {
		return err
	}
	if p.Banks < 1 {
		return fmt.Errorf("banks must be at least 1, got %d", p.Banks)
	}
	c, err := ParseColor(p.Color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	p.color = c
	return nil
}
