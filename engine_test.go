package lumen

import (
	"errors"
	"testing"
	"time"
)

const frameDT = 1.0 / 60

type engineFixture struct {
	engine *Engine
	clock  *ManualClock
	cfg    *StaticConfig
	events []Event
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		clock: NewManualClock(testEpoch),
		cfg:   &StaticConfig{C: DefaultConfig()},
	}
	f.engine = NewEngine(EngineOptions{
		Config: f.cfg,
		Clock:  f.clock,
		Device: &DeviceProfile{PixelRatio: 1},
		Width:  800,
		Height: 600,
		Seed:   1,
	})
	for _, typ := range []EventType{EventEffectStarted, EventThemeStarted, EventThemeStopped} {
		f.engine.Subscribe(typ, func(ev Event) { f.events = append(f.events, ev) })
	}
	t.Cleanup(f.engine.Close)
	return f
}

func (f *engineFixture) run(n int) {
	for range n {
		f.clock.Advance(time.Duration(frameDT * float64(time.Second)))
		f.engine.Step(frameDT)
	}
}

func (f *engineFixture) count(typ EventType) int {
	n := 0
	for _, ev := range f.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// (a) spawned ≈ rate over one second, never above the cap.
func TestEngineSnowEmission(t *testing.T) {
	f := newEngineFixture(t)
	if !f.engine.StartTheme("snow", map[string]any{"emissionRate": 14, "maxParticles": 180}) {
		t.Fatal("StartTheme(snow) = false")
	}
	pool := f.engine.Host().Pool()
	for range 60 {
		f.run(1)
		if n := pool.Count(ThemeTag); n > 180 {
			t.Fatalf("theme particles = %d, exceeds 180", n)
		}
	}
	if got := f.engine.Themes().Active().Spawned(); got < 13 || got > 15 {
		t.Errorf("Spawned = %d, want 14 ± 1", got)
	}
}

// (b) an exclusive effect clears an additive one.
func TestEngineExclusiveClearsStage(t *testing.T) {
	f := newEngineFixture(t)
	host := f.engine.Host()
	if !f.engine.Play("confetti", map[string]any{"count": 160}) {
		t.Fatal("Play(confetti) = false")
	}
	if host.Pool().Len() != 160 {
		t.Fatalf("confetti particles = %d, want 160", host.Pool().Len())
	}

	if !f.engine.Play("fade", nil) {
		t.Fatal("Play(fade) = false")
	}
	if host.Pool().Len() != 0 {
		t.Errorf("particles = %d, want 0 after exclusive fade", host.Pool().Len())
	}
	if host.EffectsLayer().FindChild("fade") == nil {
		t.Error("fade overlay should exist")
	}
	if host.TrackedCount() != 1 {
		t.Errorf("TrackedCount = %d, want only the fade instance", host.TrackedCount())
	}
}

func TestEngineExclusiveStopsTheme(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("snow", map[string]any{"emissionRate": 120})
	f.run(30)
	if f.engine.Host().Pool().Count(ThemeTag) == 0 {
		t.Fatal("setup: snow should have spawned")
	}

	f.engine.Play("glitch", nil)

	if f.engine.IsActive() {
		t.Error("exclusive effect should stop the theme")
	}
	if f.engine.Host().Pool().Count(ThemeTag) != 0 {
		t.Error("no theme particles should remain")
	}
	if f.engine.Host().EffectsLayer().FindChild("glitch") == nil {
		t.Error("glitch overlay should exist")
	}
}

func TestEngineAdditiveLayers(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("rain", nil)
	f.run(10)
	f.engine.Play("flash", nil)
	f.engine.Play("sparkles", nil)

	if !f.engine.IsActive() {
		t.Error("additive effects must not stop the theme")
	}
	layer := f.engine.Host().EffectsLayer()
	if layer.FindChild("flash") == nil {
		t.Error("flash overlay missing")
	}
	if f.engine.Host().Pool().Count(ThemeTag) == 0 {
		t.Error("theme particles should survive additive effects")
	}
}

// (c) starting a theme over another tears the old one down first.
func TestEngineThemeSwitch(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.C.ThemeLifetime = LifetimeTimed
	f.engine.StartTheme("storm", nil)
	f.run(60)
	storm := f.engine.Themes().Active()
	if storm.Overlay == nil {
		t.Fatal("storm should have a lightning overlay")
	}
	stormOverlay := storm.Overlay

	f.engine.StartTheme("snow", nil)

	if !stormOverlay.IsDisposed() {
		t.Error("storm overlay should be torn down")
	}
	if storm.timer != nil {
		t.Error("storm timer should be cleared")
	}
	snow := f.engine.Themes().Active()
	if snow.Spawned() != 0 || f.engine.Host().Pool().Count(ThemeTag) != 0 {
		t.Error("storm particles should be gone before snow emits")
	}
	if f.engine.Host().Tasks().TimerCount() != 1 {
		t.Errorf("timers = %d, want only snow's", f.engine.Host().Tasks().TimerCount())
	}
	if f.count(EventThemeStopped) != 1 || f.count(EventThemeStarted) != 2 {
		t.Errorf("events = %+v", f.events)
	}
}

// (d) stopping while stopped is silent.
func TestEngineStopThemeWhileStopped(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StopTheme()
	f.engine.StartTheme("fog", nil)
	f.engine.StopTheme()
	f.engine.StopTheme()
	if f.count(EventThemeStopped) != 1 {
		t.Errorf("theme:stopped events = %d, want 1", f.count(EventThemeStopped))
	}
	if name, ok := f.engine.ActiveTheme(); ok || name != "" {
		t.Errorf("ActiveTheme = %q, %v", name, ok)
	}
}

// (e) "none" first, retired aliases hidden but playable.
func TestEngineEffectsListAndRetiredAlias(t *testing.T) {
	f := newEngineFixture(t)
	list := f.engine.EffectsList()
	if list[0] != NoneEffect {
		t.Errorf("EffectsList()[0] = %q, want none", list[0])
	}
	for _, n := range list {
		if n == "fadewhite" || n == "fadeblack" {
			t.Errorf("retired alias %q listed", n)
		}
	}
	if !f.engine.HasEffect("fadewhite") {
		t.Error("HasEffect(fadewhite) = false")
	}

	if !f.engine.Play("fadewhite", map[string]any{"durationMs": 600}) {
		t.Fatal("Play(fadewhite) = false")
	}
	if f.engine.Dispatcher().LastActive() != "fade" {
		t.Errorf("LastActive = %q, want fade", f.engine.Dispatcher().LastActive())
	}
	node := f.engine.Host().EffectsLayer().FindChild("fade")
	if node == nil || node.Color != ColorWhite {
		t.Fatalf("fade overlay = %+v, want white", node)
	}

	f.engine.Play("fadewhite", map[string]any{"color": "red"})
	node = f.engine.Host().EffectsLayer().FindChild("fade")
	if node == nil || node.Color.G != 0 || node.Color.R != 1 {
		t.Errorf("caller color should win, got %+v", node.Color)
	}
}

func TestEnginePlayNoneClears(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("snow", nil)
	f.engine.Play("confetti", nil)
	if !f.engine.Play(NoneEffect, nil) {
		t.Error("Play(none) = false")
	}
	host := f.engine.Host()
	if f.engine.IsActive() || host.Pool().Len() != 0 || host.EffectsLayer().NumChildren() != 0 || host.Running() {
		t.Error("Play(none) should clear the stage")
	}
}

func TestEnginePlayUnknown(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("snow", nil)
	if f.engine.Play("nope", nil) {
		t.Error("Play(nope) = true")
	}
	if !f.engine.IsActive() {
		t.Error("unknown effect must not clear the stage")
	}
}

func TestEngineInvalidExclusiveKeepsStage(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("snow", nil)
	f.engine.Play("sparkles", nil)
	f.run(10)
	host := f.engine.Host()
	particles := host.Pool().Len()

	if f.engine.Play("fade", map[string]any{"color": "nope"}) {
		t.Fatal("Play(fade, bad color) = true")
	}
	if !f.engine.IsActive() {
		t.Error("invalid exclusive play must not stop the theme")
	}
	if host.Pool().Len() != particles {
		t.Errorf("Pool.Len = %d, want %d untouched", host.Pool().Len(), particles)
	}
	if host.TrackedCount() == 0 {
		t.Error("sparkles instance should still be tracked")
	}
}

func TestEngineEffectsFinishAndRelease(t *testing.T) {
	f := newEngineFixture(t)
	for _, name := range []string{"flash", "confetti", "fire", "sparkles", "shockwave", "celebrate"} {
		if !f.engine.Play(name, nil) {
			t.Errorf("Play(%s) = false", name)
		}
	}
	if f.count(EventEffectStarted) != 6 {
		t.Errorf("effect:started events = %d, want 6", f.count(EventEffectStarted))
	}

	f.run(600)

	host := f.engine.Host()
	if host.TrackedCount() != 0 {
		t.Errorf("TrackedCount = %d, want 0", host.TrackedCount())
	}
	if host.Pool().Len() != 0 {
		t.Errorf("particles = %d, want 0", host.Pool().Len())
	}
	if host.EffectsLayer().NumChildren() != 0 {
		t.Errorf("effect nodes = %d, want 0", host.EffectsLayer().NumChildren())
	}
	if host.Tasks().TaskCount() != 0 || host.Tasks().TimerCount() != 0 {
		t.Errorf("tasks = %d, timers = %d", host.Tasks().TaskCount(), host.Tasks().TimerCount())
	}
	if host.Running() {
		t.Error("loop should idle once every effect is done")
	}
}

func TestEngineEveryThemeRuns(t *testing.T) {
	f := newEngineFixture(t)
	for _, name := range f.engine.ThemesList() {
		if !f.engine.StartTheme(name, nil) {
			t.Errorf("StartTheme(%s) = false", name)
			continue
		}
		f.engine.Host().InjectPointer(300, 200)
		f.run(90)
		if got, _ := f.engine.ActiveTheme(); got != name {
			t.Errorf("ActiveTheme = %q, want %q", got, name)
		}
	}
	f.engine.StopTheme()
	host := f.engine.Host()
	if host.ThemeLayer().NumChildren() != 0 || host.Pool().Count(ThemeTag) != 0 {
		t.Error("theme resources should be released")
	}
	if host.Tasks().TaskCount() != 0 {
		t.Errorf("tasks = %d, overlay tasks should be cancelled", host.Tasks().TaskCount())
	}
}

func TestEngineHistoricalThemeName(t *testing.T) {
	f := newEngineFixture(t)
	if !f.engine.StartTheme("thunderstorm", nil) {
		t.Fatal("StartTheme(thunderstorm) = false")
	}
	if name, _ := f.engine.ActiveTheme(); name != "storm" {
		t.Errorf("ActiveTheme = %q, want storm", name)
	}
	if f.events[len(f.events)-1].Theme != "storm" {
		t.Errorf("event theme = %q, want storm", f.events[len(f.events)-1].Theme)
	}
}

func TestEngineForcedCSSOnlyParticleTheme(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.C.Themes = map[string]map[string]any{"snow": {"cssOnly": true}}
	f.engine.StartTheme("snow", nil)
	a := f.engine.Themes().Active()
	if !a.CSSOnly || a.Overlay == nil || a.Overlay.Name != "snow-still" {
		t.Errorf("CSSOnly = %v, Overlay = %+v", a.CSSOnly, a.Overlay)
	}
	f.run(30)
	if f.engine.Host().Pool().Len() != 0 {
		t.Error("css-only snow should not emit")
	}
}

func TestEngineSyncConfig(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("snow", nil)
	first := f.engine.Themes().Active()

	f.engine.SyncActiveThemeOverlay()
	if first.OverlayBuilds() != 0 || f.engine.Themes().Active() != first {
		t.Error("unchanged sync should not rebuild or restart")
	}

	f.cfg.C.ZIndex = 5
	f.cfg.C.Aura = AuraConfig{Enabled: true, Level: 2}
	f.engine.SyncActiveThemeOverlay()
	if f.engine.Host().ZIndex() != 5 {
		t.Errorf("ZIndex = %d, want 5", f.engine.Host().ZIndex())
	}
	if !f.engine.AuraActive() {
		t.Error("aura should be showing")
	}

	f.cfg.C.Enabled = false
	f.engine.SyncActiveThemeOverlay()
	if f.engine.IsActive() {
		t.Error("disabling should stop the theme")
	}
	if f.engine.StartTheme("snow", nil) || f.engine.Play("flash", nil) {
		t.Error("disabled engine should refuse compositions")
	}
	if err := f.engine.Ready(); !errors.Is(err, ErrDisabled) {
		t.Errorf("Ready = %v, want ErrDisabled", err)
	}
}

func TestEngineReducedMotionSync(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.device.ReducedMotion = true
	f.cfg.C.ReducedMotionRespect = false
	f.engine.SyncActiveThemeOverlay()
	if f.engine.Scaler().Reduced() {
		t.Error("reduced motion should be ignored when not respected")
	}
	f.cfg.C.ReducedMotionRespect = true
	f.engine.SyncActiveThemeOverlay()
	if !f.engine.Scaler().Reduced() {
		t.Error("reduced motion should apply after sync")
	}
}

func TestEngineAccepts(t *testing.T) {
	f := newEngineFixture(t)
	if !f.engine.Accepts(ModeSurface) || !f.engine.Accepts(ModeControl) {
		t.Error("mode both should accept every source")
	}
	f.cfg.C.Mode = ModeControl
	if f.engine.Accepts(ModeSurface) || !f.engine.Accepts(ModeControl) {
		t.Error("mode control should only accept controls")
	}
}

func TestEngineAuraSurvivesClearStage(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.C.Aura.Enabled = true
	f.engine.SyncActiveThemeOverlay()
	f.engine.StopAll()
	if !f.engine.AuraActive() {
		t.Error("aura should survive StopAll")
	}
	f.cfg.C.Aura.Enabled = false
	f.engine.SyncActiveThemeOverlay()
	if f.engine.AuraActive() {
		t.Error("aura should be removed when disabled")
	}
}

func TestEngineClose(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.StartTheme("fireflies", nil)
	f.engine.Play("fire", nil)
	f.run(10)

	f.engine.Close()
	f.engine.Close()

	host := f.engine.Host()
	if host.OverlayContainer() != nil || host.Pool().Len() != 0 || host.TrackedCount() != 0 {
		t.Error("Close should release the overlay, particles and instances")
	}
	if host.PointerListenerCount() != 0 || host.Tasks().TaskCount() != 0 || host.Tasks().TimerCount() != 0 {
		t.Error("Close should release listeners, tasks and timers")
	}
	if f.engine.StartTheme("snow", nil) {
		t.Error("closed engine should refuse compositions")
	}
	if err := f.engine.Ready(); !errors.Is(err, ErrClosed) {
		t.Errorf("Ready = %v, want ErrClosed", err)
	}
	f.run(1) // must not panic
}

func TestEnginePreferred(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.C.PreferredTheme = "snowfall"
	f.cfg.C.PreferredEffect = "flash"
	if !f.engine.StartPreferredTheme() || !f.engine.PlayPreferred() {
		t.Fatal("preferred composition failed")
	}
	if name, _ := f.engine.ActiveTheme(); name != "snow" {
		t.Errorf("ActiveTheme = %q, want snow", name)
	}
}
