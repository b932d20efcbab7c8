package lumen

import (
	"errors"
	"testing"
	"time"
)

type pulseParams struct {
	Level int `yaml:"level"`
}

func (p *pulseParams) Validate() error {
	if p.Level < 0 {
		return errors.New("level must not be negative")
	}
	return nil
}

func newPulseDispatcher(t *testing.T, cfg *Config, handler Handler) (*Dispatcher, *Host, *Bus) {
	t.Helper()
	h, _ := newTestHost()
	tbl, err := NewEffectTable([]EffectDefinition{{
		Name:    "pulse",
		Params:  func() Params { return &pulseParams{Level: 1} },
		Handler: handler,
	}}, []EffectAlias{{Name: "pulse2", Target: "pulse", Overrides: map[string]any{"level": 2}}})
	if err != nil {
		t.Fatal(err)
	}
	bus := NewBus()
	d := NewDispatcher(tbl, DispatcherOptions{
		Host:   h,
		Config: &StaticConfig{C: cfg},
		Scaler: NewScaler(DeviceProfile{PixelRatio: 1}, cfg),
		Bus:    bus,
	})
	return d, h, bus
}

func TestDispatcherPlayLayersParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Effects = map[string]map[string]any{"pulse": {"level": 5}}
	var got *EffectContext
	d, h, _ := newPulseDispatcher(t, cfg, func(ctx *EffectContext) error { got = ctx; return nil })

	if !d.Play("pulse", nil) {
		t.Fatal("Play(pulse) = false")
	}
	if got.Params.(*pulseParams).Level != 5 {
		t.Errorf("Level = %d, want stored 5", got.Params.(*pulseParams).Level)
	}
	if got.Layer != h.EffectsLayer() || got.Pool != h.Pool() {
		t.Error("context should expose the host's effect layer and pool")
	}

	d.Play("pulse", map[string]any{"level": 9})
	if got.Params.(*pulseParams).Level != 9 {
		t.Errorf("Level = %d, want caller 9", got.Params.(*pulseParams).Level)
	}
}

func TestDispatcherAliasCanonicalName(t *testing.T) {
	var got *EffectContext
	d, _, bus := newPulseDispatcher(t, DefaultConfig(), func(ctx *EffectContext) error { got = ctx; return nil })
	var started []string
	bus.Subscribe(EventEffectStarted, func(ev Event) { started = append(started, ev.Effect) })

	if !d.Play("pulse2", nil) {
		t.Fatal("Play(pulse2) = false")
	}
	if got.Name != "pulse" || got.Params.(*pulseParams).Level != 2 {
		t.Errorf("ctx = %s level %d, want pulse level 2", got.Name, got.Params.(*pulseParams).Level)
	}
	if d.LastActive() != "pulse" {
		t.Errorf("LastActive = %q, want pulse", d.LastActive())
	}
	if len(started) != 1 || started[0] != "pulse" {
		t.Errorf("started events = %v", started)
	}
}

func TestDispatcherUniqueTags(t *testing.T) {
	var tags []Tag
	d, _, _ := newPulseDispatcher(t, DefaultConfig(), func(ctx *EffectContext) error {
		tags = append(tags, ctx.Tag)
		return nil
	})
	d.Play("pulse", nil)
	d.Play("pulse", nil)
	if len(tags) != 2 || tags[0] == tags[1] {
		t.Errorf("tags = %v, want two distinct", tags)
	}
	if tags[0].IsTheme() {
		t.Error("effect tag should not be the theme tag")
	}
}

func TestDispatcherUnknownEffect(t *testing.T) {
	called := false
	d, h, bus := newPulseDispatcher(t, DefaultConfig(), func(*EffectContext) error { called = true; return nil })
	events := 0
	bus.Subscribe(EventEffectStarted, func(Event) { events++ })

	if d.Play("nope", nil) {
		t.Error("Play(nope) = true")
	}
	if called || events != 0 || d.LastActive() != "" {
		t.Error("unknown effect must have no side effects")
	}
	if h.OverlayContainer() != nil {
		t.Error("unknown effect should not create the overlay")
	}
}

func TestDispatcherInvalidParams(t *testing.T) {
	called := false
	d, _, _ := newPulseDispatcher(t, DefaultConfig(), func(*EffectContext) error { called = true; return nil })
	if d.Play("pulse", map[string]any{"level": -1}) {
		t.Error("Play with invalid params = true")
	}
	if called {
		t.Error("handler should not run with invalid params")
	}
}

func TestDispatcherHandlerFailureContained(t *testing.T) {
	fail := true
	d, _, bus := newPulseDispatcher(t, DefaultConfig(), func(*EffectContext) error {
		if fail {
			return errors.New("no surface")
		}
		panic("boom")
	})
	events := 0
	bus.Subscribe(EventEffectStarted, func(Event) { events++ })

	if d.Play("pulse", nil) {
		t.Error("failing handler: Play = true")
	}
	fail = false
	if d.Play("pulse", nil) {
		t.Error("panicking handler: Play = true")
	}
	if events != 0 || d.LastActive() != "" {
		t.Error("failed handlers should not record or publish")
	}
}

func TestDispatcherFailedHandlerReleasesInstance(t *testing.T) {
	for _, mode := range []string{"error", "panic"} {
		d, h, _ := newPulseDispatcher(t, DefaultConfig(), func(ctx *EffectContext) error {
			inst := ctx.NewInstance(10 * time.Second)
			inst.Attach(NewContainer("half-built"))
			inst.Spawn(testParticle(""))
			if mode == "panic" {
				panic("boom")
			}
			return errors.New("no surface")
		})

		if d.Play("pulse", nil) {
			t.Errorf("%s: Play = true", mode)
		}
		if got := h.TrackedCount(); got != 0 {
			t.Errorf("%s: TrackedCount = %d, want 0", mode, got)
		}
		if got := h.EffectsLayer().NumChildren(); got != 0 {
			t.Errorf("%s: effects layer children = %d, want 0", mode, got)
		}
		if got := h.Pool().Len(); got != 0 {
			t.Errorf("%s: Pool.Len = %d, want 0", mode, got)
		}
		if got := h.Tasks().TimerCount(); got != 0 {
			t.Errorf("%s: TimerCount = %d, want 0", mode, got)
		}
	}
}

func TestDispatcherPrepareHasNoSideEffects(t *testing.T) {
	calls := 0
	d, h, _ := newPulseDispatcher(t, DefaultConfig(), func(*EffectContext) error { calls++; return nil })

	if _, ok := d.Prepare("pulse", map[string]any{"level": -1}); ok {
		t.Error("Prepare with invalid level = true")
	}
	inv, ok := d.Prepare("pulse2", nil)
	if !ok {
		t.Fatal("Prepare(pulse2) = false")
	}
	if inv.Name() != "pulse" || !inv.Exclusive() {
		t.Errorf("Name = %q, Exclusive = %v; want pulse, exclusive", inv.Name(), inv.Exclusive())
	}
	if calls != 0 || h.TrackedCount() != 0 {
		t.Error("Prepare should not run the handler")
	}
	if !d.Invoke(inv) || calls != 1 {
		t.Errorf("Invoke ran handler %d times, want 1", calls)
	}
}

func TestDispatcherEffectsList(t *testing.T) {
	d, _, _ := newPulseDispatcher(t, DefaultConfig(), noopHandler)
	list := d.EffectsList()
	if len(list) != 3 || list[0] != NoneEffect || list[1] != "pulse" || list[2] != "pulse2" {
		t.Errorf("EffectsList = %v", list)
	}
	if d.HasEffect(NoneEffect) {
		t.Error("HasEffect(none) = true")
	}
	if !d.HasEffect("pulse2") {
		t.Error("HasEffect(pulse2) = false")
	}
}

// --- Instance ---

func TestInstanceStopReleasesEverything(t *testing.T) {
	h, clock := newTestHost()
	inst := newInstance("x", "effect:x#1", h, 0)
	node := inst.Attach(NewContainer("x-node"))
	inst.Spawn(testParticle(""), testParticle(""))
	h.Pool().Add(testParticle("other"))
	var order []int
	inst.OnStop(func() { order = append(order, 1) })
	inst.OnStop(func() { order = append(order, 2) })
	runs := 0
	inst.Run(func(float64) bool { runs++; return true })

	if h.Pool().Count("effect:x#1") != 2 || h.TrackedCount() != 1 {
		t.Fatalf("setup: count = %d, tracked = %d", h.Pool().Count("effect:x#1"), h.TrackedCount())
	}

	inst.Stop()
	inst.Stop()

	if !node.IsDisposed() {
		t.Error("attached node should be disposed")
	}
	if h.Pool().Count("effect:x#1") != 0 || h.Pool().Count("other") != 1 {
		t.Error("Stop should clear only the instance's particles")
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("hook order = %v, want [2 1]", order)
	}
	if h.TrackedCount() != 0 {
		t.Error("instance should untrack itself")
	}
	tick(h, clock, 0.016)
	if runs != 0 {
		t.Errorf("loop ran %d times after Stop", runs)
	}
}

func TestInstanceStopsWhenLoopEnds(t *testing.T) {
	h, clock := newTestHost()
	inst := newInstance("x", "effect:x#1", h, 0)
	n := 0
	inst.Run(func(float64) bool { n++; return n < 2 })
	ticks(h, clock, 3, 0.016)
	if !inst.Stopped() {
		t.Error("instance should stop once its loop returns false")
	}
}

func TestInstanceHardTimeout(t *testing.T) {
	h, clock := newTestHost()
	inst := newInstance("x", "effect:x#1", h, 500*time.Millisecond)
	inst.Run(func(float64) bool { return true })
	ticks(h, clock, 10, 0.04)
	if inst.Stopped() {
		t.Fatal("stopped before timeout")
	}
	ticks(h, clock, 3, 0.04)
	if !inst.Stopped() {
		t.Error("timeout should stop a stalled instance")
	}
}

func TestInstanceAfterStop(t *testing.T) {
	h, _ := newTestHost()
	inst := newInstance("x", "effect:x#1", h, 0)
	inst.Stop()

	late := inst.Attach(NewContainer("late"))
	if !late.IsDisposed() || h.EffectsLayer().NumChildren() != 0 {
		t.Error("nodes attached after Stop should be torn down immediately")
	}
	inst.Spawn(testParticle(""))
	if h.Pool().Len() != 0 {
		t.Error("Spawn after Stop should add nothing")
	}
	ran := false
	inst.OnStop(func() { ran = true })
	if !ran {
		t.Error("OnStop after Stop should run immediately")
	}
}
