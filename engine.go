package lumen

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// EngineOptions configures NewEngine. Every field is optional.
type EngineOptions struct {
	Config  ConfigSource
	Effects *EffectTable
	Themes  *ThemeTable
	Clock   Clock
	// Device describes the host device. Nil probes the primary monitor.
	Device *DeviceProfile
	Width  float64
	Height float64
	Seed   uint64
}

// Engine is the orchestrating caller: it owns the host, the dispatcher and
// the theme machine, and enforces stacking. Exclusive effects clear the
// whole stage before they start; additive effects layer on top.
//
// Engine implements ebiten.Game.
type Engine struct {
	host       *Host
	bus        *Bus
	dispatcher *Dispatcher
	themes     *ThemeMachine
	config     ConfigSource
	device     DeviceProfile
	scaler     Scaler

	aura      *Node
	auraLevel int

	script *ScriptRunner
	closed bool
}

// NewEngine wires a host, dispatcher and theme machine around one config
// source.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Config == nil {
		opts.Config = &StaticConfig{}
	}
	if opts.Effects == nil {
		opts.Effects = DefaultEffects()
	}
	if opts.Themes == nil {
		opts.Themes = DefaultThemes()
	}
	var device DeviceProfile
	if opts.Device != nil {
		device = *opts.Device
	} else {
		device = ProbeDevice()
	}

	cfg := opts.Config.Config()
	scaler := NewScaler(device, cfg)
	host := NewHost(HostOptions{Clock: opts.Clock, Width: opts.Width, Height: opts.Height})
	bus := NewBus()

	e := &Engine{
		host:   host,
		bus:    bus,
		config: opts.Config,
		device: device,
		scaler: scaler,
		dispatcher: NewDispatcher(opts.Effects, DispatcherOptions{
			Host: host, Config: opts.Config, Scaler: scaler, Bus: bus, Seed: opts.Seed,
		}),
		themes: NewThemeMachine(opts.Themes, ThemeMachineOptions{
			Host: host, Config: opts.Config, Scaler: scaler, Bus: bus, Seed: opts.Seed,
		}),
	}
	host.AddFrameFunc(e.themes.OnFrame)
	host.SetZIndex(cfg.ZIndex)
	host.SetShadersEnabled(!device.NoShaders)
	e.syncAura(cfg)
	return e
}

// SetShadersEnabled switches shader overlays on or off. Off, glitch and
// shockwave draw their vector fallbacks.
func (e *Engine) SetShadersEnabled(enabled bool) {
	e.host.SetShadersEnabled(enabled)
}

// Host returns the render-loop host.
func (e *Engine) Host() *Host {
	return e.host
}

// Themes returns the theme machine.
func (e *Engine) Themes() *ThemeMachine {
	return e.themes
}

// Dispatcher returns the effect dispatcher.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.dispatcher
}

// Scaler returns the current device scaler.
func (e *Engine) Scaler() Scaler {
	return e.scaler
}

// Subscribe registers fn for lifecycle notifications of type t.
func (e *Engine) Subscribe(t EventType, fn func(Event)) func() {
	return e.bus.Subscribe(t, fn)
}

// Accepts reports whether the configured mode lets source trigger
// compositions. source is ModeSurface or ModeControl.
func (e *Engine) Accepts(source Mode) bool {
	m := e.config.Config().Mode
	return m == ModeBoth || m == source
}

// Ready returns nil when the engine accepts new compositions, ErrClosed
// after Close and ErrDisabled while the config switches it off.
func (e *Engine) Ready() error {
	if e.closed {
		return ErrClosed
	}
	if !e.config.Config().Enabled {
		return ErrDisabled
	}
	return nil
}

// --- Effects ---

// HasEffect reports whether name dispatches to a handler.
func (e *Engine) HasEffect(name string) bool {
	return e.dispatcher.HasEffect(name)
}

// EffectsList returns "none" followed by the listed effect names.
func (e *Engine) EffectsList() []string {
	return e.dispatcher.EffectsList()
}

// Play runs an effect under the stacking rules. An exclusive effect first
// clears the stage: the theme is stopped, every particle removed, every
// overlay torn down and the frame loop halted. Params are validated before
// anything is cleared. "none" only clears.
func (e *Engine) Play(name string, overrides map[string]any) bool {
	if err := e.Ready(); err != nil {
		log.Printf("[lumen] play %q: %v", name, err)
		return false
	}
	if name == NoneEffect {
		e.ClearStage()
		return true
	}
	inv, ok := e.dispatcher.Prepare(name, overrides)
	if !ok {
		return false
	}
	if inv.Exclusive() {
		e.ClearStage()
	}
	return e.dispatcher.Invoke(inv)
}

// PlayPreferred plays the configured preferredEffect.
func (e *Engine) PlayPreferred() bool {
	return e.Play(e.config.Config().PreferredEffect, nil)
}

// ClearStage removes every composition: theme, particles, overlays, loop.
// The aura stays.
func (e *Engine) ClearStage() {
	e.themes.Stop()
	e.host.Pool().ClearAll()
	e.host.ClearOverlay()
	e.host.StopLoop()
}

// --- Themes ---

// ThemesList returns the registered theme names.
func (e *Engine) ThemesList() []string {
	return e.themes.ThemesList()
}

// StartTheme makes name the active theme.
func (e *Engine) StartTheme(name string, overrides map[string]any) bool {
	if err := e.Ready(); err != nil {
		log.Printf("[lumen] theme %q: %v", name, err)
		return false
	}
	return e.themes.Start(name, overrides)
}

// StartPreferredTheme starts the configured preferredTheme.
func (e *Engine) StartPreferredTheme() bool {
	return e.StartTheme(e.config.Config().PreferredTheme, nil)
}

// StopTheme stops the active theme. A no-op when none is running.
func (e *Engine) StopTheme() {
	e.themes.Stop()
}

// IsActive reports whether a theme is running.
func (e *Engine) IsActive() bool {
	return e.themes.IsActive()
}

// ActiveTheme returns the canonical name of the running theme.
func (e *Engine) ActiveTheme() (string, bool) {
	return e.themes.ActiveTheme()
}

// SyncActiveThemeOverlay applies a configuration change: device scaling,
// stacking order and aura are refreshed, then the running theme is synced.
// Disabling the engine through config stops everything.
func (e *Engine) SyncActiveThemeOverlay() {
	if e.closed {
		return
	}
	cfg := e.config.Config()
	e.scaler = NewScaler(e.device, cfg)
	e.dispatcher.SetScaler(e.scaler)
	e.themes.SetScaler(e.scaler)
	e.host.SetZIndex(cfg.ZIndex)
	e.syncAura(cfg)

	if !cfg.Enabled {
		e.StopAll()
		return
	}
	e.themes.SyncActiveThemeOverlay()
}

// --- Teardown ---

// StopAll stops every running composition.
func (e *Engine) StopAll() {
	e.ClearStage()
}

// Close tears the engine down for good: compositions, aura, tasks, timers,
// listeners and the overlay container. Safe to call more than once.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.StopAll()
	e.aura = nil
	e.host.Teardown()
	e.closed = true
}

// --- Aura ---

// auraAlpha is the edge glow opacity per aura level.
var auraAlpha = [...]float64{0.08, 0.16, 0.26, 0.38}

func (e *Engine) syncAura(cfg *Config) {
	want := cfg.Aura.Enabled && !e.closed
	if !want {
		if e.aura != nil {
			teardownNode(e.aura)
			e.aura = nil
		}
		return
	}
	level := min(max(cfg.Aura.Level, 0), len(auraAlpha)-1)
	if e.aura != nil && e.auraLevel == level {
		return
	}
	if e.aura != nil {
		teardownNode(e.aura)
	}
	e.aura = newAura(e.host, auraAlpha[level])
	e.auraLevel = level
	e.host.AuraLayer().AddChild(e.aura)
}

// newAura builds a soft glow hugging the stage edges.
func newAura(h *Host, strength float64) *Node {
	glow := Color{0.55, 0.75, 1, 1}
	return NewDrawNode("aura", func(dst *ebiten.Image, _ *Node, alpha float64) {
		w, ht := h.StageSize()
		const bands = 6
		const bandW = 6.0
		for i := 0; i < bands; i++ {
			a := strength * alpha * (1 - float64(i)/bands)
			c := glow.WithAlpha(a).toNRGBA()
			off := float32(float64(i) * bandW)
			vector.StrokeRect(dst, off, off, float32(w)-2*off, float32(ht)-2*off, bandW, c, false)
		}
	})
}

// AuraActive reports whether the aura glow is showing.
func (e *Engine) AuraActive() bool {
	return e.aura != nil && !e.aura.IsDisposed()
}

// --- ebiten.Game ---

// Step advances the engine by dt seconds: script, then host tick.
func (e *Engine) Step(dt float64) {
	if e.script != nil {
		e.script.step(e)
	}
	e.host.Update(dt)
}

// Update implements ebiten.Game.
func (e *Engine) Update() error {
	e.host.PollPointer()
	e.Step(1 / float64(ebiten.TPS()))
	return nil
}

// Draw implements ebiten.Game.
func (e *Engine) Draw(screen *ebiten.Image) {
	e.host.Draw(screen)
}

// Layout implements ebiten.Game. The stage follows the window size.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	e.host.SetStageSize(float64(outsideWidth), float64(outsideHeight))
	return outsideWidth, outsideHeight
}
