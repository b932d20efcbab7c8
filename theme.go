package lumen

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// ActiveTheme is the running ambient composition. Only the ThemeMachine
// mutates it; callers get read-only accessors.
type ActiveTheme struct {
	Name        string
	Type        string
	Config      map[string]any
	Params      Params
	Accumulator float64
	CSSOnly     bool
	Overlay     *Node
	Signature   string

	ctx           *ThemeContext
	spawn         ParticleFactory
	overrides     map[string]any
	timer         *Timer
	removePointer func()

	spawned       int
	overlayBuilds int
}

// Spawned returns how many particles the theme has emitted since it started.
func (a *ActiveTheme) Spawned() int {
	return a.spawned
}

// OverlayBuilds returns how many times the overlay was built, including the
// initial build.
func (a *ActiveTheme) OverlayBuilds() int {
	return a.overlayBuilds
}

// TimerDeadline returns when the lifetime timer fires, if one is armed.
func (a *ActiveTheme) TimerDeadline() (time.Time, bool) {
	if a.timer == nil || a.timer.Done() {
		return time.Time{}, false
	}
	return a.timer.Deadline(), true
}

// ThemeMachineOptions configures NewThemeMachine. Host is required.
type ThemeMachineOptions struct {
	Host   *Host
	Config ConfigSource
	Scaler Scaler
	Bus    *Bus
	Seed   uint64
}

// ThemeMachine owns the single ambient composition. It is either stopped
// (no ActiveTheme) or active.
type ThemeMachine struct {
	table  *ThemeTable
	host   *Host
	config ConfigSource
	scaler Scaler
	bus    *Bus
	rng    randSource

	active *ActiveTheme
}

// NewThemeMachine creates a stopped machine over an immutable table. The
// caller attaches OnFrame to the host's frame chain.
func NewThemeMachine(table *ThemeTable, opts ThemeMachineOptions) *ThemeMachine {
	if opts.Config == nil {
		opts.Config = &StaticConfig{}
	}
	if opts.Bus == nil {
		opts.Bus = NewBus()
	}
	return &ThemeMachine{
		table:  table,
		host:   opts.Host,
		config: opts.Config,
		scaler: opts.Scaler,
		bus:    opts.Bus,
		rng:    randSource{seed: opts.Seed ^ 0x7ee3},
	}
}

// SetScaler replaces the device scaler. It applies from the next frame; the
// running theme is not restarted.
func (m *ThemeMachine) SetScaler(s Scaler) {
	m.scaler = s
	if m.active != nil {
		m.active.ctx.Scaler = s
	}
}

// ThemesList returns the registered theme names.
func (m *ThemeMachine) ThemesList() []string {
	return m.table.Names()
}

// IsActive reports whether a theme is running.
func (m *ThemeMachine) IsActive() bool {
	return m.active != nil
}

// ActiveTheme returns the canonical name of the running theme.
func (m *ThemeMachine) ActiveTheme() (string, bool) {
	if m.active == nil {
		return "", false
	}
	return m.active.Name, true
}

// Active returns the running theme record, or nil.
func (m *ThemeMachine) Active() *ActiveTheme {
	return m.active
}

// resolved is one resolution of a theme name against the current config.
type resolved struct {
	def     *ThemeDefinition
	typ     *ThemeType
	params  Params
	config  map[string]any
	cssOnly bool
}

func (m *ThemeMachine) resolve(name string, overrides map[string]any) (resolved, error) {
	def, typ, ok := m.table.Lookup(name)
	if !ok {
		return resolved{}, ErrUnknownTheme
	}
	p, merged, err := resolveParams(def.Params, m.config.Config().ThemeParams(def.Name), overrides)
	if err != nil {
		return resolved{}, err
	}
	return resolved{
		def:     def,
		typ:     typ,
		params:  p,
		config:  merged,
		cssOnly: classifyCSSOnly(def, typ, merged),
	}, nil
}

// classifyCSSOnly decides whether the theme runs without particles. A
// config key cssOnly overrides the definition for types that can spawn
// particles; overlay-only types are always css-only.
func classifyCSSOnly(def *ThemeDefinition, typ *ThemeType, config map[string]any) bool {
	if typ.Spawn == nil {
		return true
	}
	if v, ok := config["cssOnly"].(bool); ok {
		return v
	}
	return def.CSSOnly
}

// overlayFor picks the overlay builder for a resolution, or nil when the
// theme wants no overlay.
func overlayFor(r resolved) OverlayBuilder {
	switch {
	case r.def.Overlay != nil:
		return r.def.Overlay
	case r.cssOnly && r.typ.Overlay == nil:
		return buildStaticParticles(r.typ.Spawn)
	default:
		return r.typ.Overlay
	}
}

// Start makes name the active theme. Unknown names and invalid params
// return false and leave the current state untouched. A running theme is
// fully stopped first.
func (m *ThemeMachine) Start(name string, overrides map[string]any) bool {
	r, err := m.resolve(name, overrides)
	if err != nil {
		if !errors.Is(err, ErrUnknownTheme) {
			log.Printf("[lumen] theme %q: %v", name, err)
		}
		return false
	}

	if m.active != nil {
		m.Stop()
	}

	a := &ActiveTheme{
		Name:      r.def.Name,
		Type:      r.def.Type,
		Config:    r.config,
		Params:    r.params,
		CSSOnly:   r.cssOnly,
		spawn:     r.typ.Spawn,
		overrides: MergeParams(overrides),
	}
	a.ctx = &ThemeContext{
		Name:   r.def.Name,
		Type:   r.def.Type,
		Config: r.config,
		Params: r.params,
		Scaler: m.scaler,
		Host:   m.host,
		Pool:   m.host.Pool(),
		Rand:   m.rng.next(),
	}
	m.active = a

	m.buildOverlay(a, overlayFor(r))
	if r.def.Pointer && !a.CSSOnly {
		ctx := a.ctx
		a.removePointer = m.host.AddPointerListener(func(x, y float64) {
			ctx.Pointer = Vec2{x, y}
			ctx.HasPointer = true
		})
	}
	a.Signature = signature(r.config, r.cssOnly)
	if !a.CSSOnly {
		m.host.RequestFrame()
	}
	m.armTimer(a)

	m.bus.Publish(Event{Type: EventThemeStarted, Theme: a.Name})
	return true
}

// Stop tears the active theme down. A no-op when stopped.
func (m *ThemeMachine) Stop() {
	a := m.active
	if a == nil {
		return
	}

	safeCall("theme timer", a.timer.Cancel)
	a.timer = nil
	if a.removePointer != nil {
		safeCall("theme pointer", a.removePointer)
		a.removePointer = nil
	}
	m.teardownOverlay(a)
	safeCall("theme particles", func() { m.host.Pool().ClearTag(ThemeTag) })

	m.active = nil
	m.bus.Publish(Event{Type: EventThemeStopped, Theme: a.Name})
}

// OnFrame runs theme emission. It reports whether the theme still wants
// frames.
func (m *ThemeMachine) OnFrame(dt float64) bool {
	a := m.active
	if a == nil || a.CSSOnly || a.spawn == nil {
		return false
	}
	em, ok := a.Params.(emitter)
	if !ok {
		return false
	}
	tuning := em.EmissionTuning()
	rate := m.scaler.Rate(tuning.EmissionRate)
	maxParticles := m.scaler.Count(tuning.MaxParticles)

	a.Accumulator += dt * rate
	toSpawn := math.Floor(a.Accumulator)
	a.Accumulator -= toSpawn

	pool := m.host.Pool()
	n := min(int(toSpawn), maxParticles-pool.Count(ThemeTag))
	for range n {
		p, err := a.spawnOne()
		if err != nil {
			// Emission stays off until the theme is started again.
			log.Printf("[lumen] theme %q spawn: %v", a.Name, err)
			a.spawn = nil
			return false
		}
		if p == nil {
			continue
		}
		p.Tag = ThemeTag
		pool.Add(p)
		a.spawned++
	}
	return true
}

// spawnOne calls the theme's particle factory, turning a panic into an
// error.
func (a *ActiveTheme) spawnOne() (p *Particle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panic: %v", r)
		}
	}()
	return a.spawn(a.ctx), nil
}

// SyncActiveThemeOverlay re-reads configuration for the running theme. The
// lifetime timer is always re-armed. A change of css-only classification
// restarts the theme; any other change of the merged config rebuilds the
// overlay in place and, for particle themes, drops the theme's particles
// and emission backlog. An unchanged config does nothing further.
func (m *ThemeMachine) SyncActiveThemeOverlay() {
	a := m.active
	if a == nil {
		return
	}
	m.armTimer(a)

	r, err := m.resolve(a.Name, a.overrides)
	if err != nil {
		log.Printf("[lumen] theme %q sync: %v", a.Name, err)
		return
	}

	if r.cssOnly != a.CSSOnly {
		m.Start(a.Name, a.overrides)
		return
	}

	sig := signature(r.config, r.cssOnly)
	if sig == a.Signature {
		return
	}
	a.Signature = sig
	a.Config, a.Params = r.config, r.params
	a.ctx.Config, a.ctx.Params = r.config, r.params

	m.teardownOverlay(a)
	m.buildOverlay(a, overlayFor(r))
	if !a.CSSOnly {
		m.host.Pool().ClearTag(ThemeTag)
		a.Accumulator = 0
		m.host.RequestFrame()
	}
}

func (m *ThemeMachine) buildOverlay(a *ActiveTheme, build OverlayBuilder) {
	if build == nil {
		return
	}
	var node *Node
	safeCall("theme overlay "+a.Name, func() { node = build(a.ctx) })
	if node == nil {
		return
	}
	m.host.ThemeLayer().AddChild(node)
	a.Overlay = node
	a.overlayBuilds++
}

func (m *ThemeMachine) teardownOverlay(a *ActiveTheme) {
	if a.Overlay == nil {
		return
	}
	n := a.Overlay
	a.Overlay = nil
	safeCall("theme overlay "+a.Name, func() { teardownNode(n) })
}

// armTimer (re)arms the lifetime timer from the current config. Permanent
// themes get no timer.
func (m *ThemeMachine) armTimer(a *ActiveTheme) {
	a.timer.Cancel()
	a.timer = nil

	cfg := m.config.Config()
	if cfg.ThemeLifetime != LifetimeTimed {
		return
	}
	d := m.scaler.Duration(cfg.ThemeDuration())
	if d <= 0 {
		return
	}
	a.timer = m.host.Tasks().After(d, func() {
		if m.active == a {
			m.Stop()
		}
	})
}
