package lumen

import (
	"fmt"
	"log"
)

// DispatcherOptions configures NewDispatcher. Host is required.
type DispatcherOptions struct {
	Host   *Host
	Config ConfigSource
	Scaler Scaler
	Bus    *Bus
	Seed   uint64
}

// Dispatcher maps effect names to handlers and runs them. It keeps no
// per-invocation state: the instance a handler creates belongs to the host
// from then on.
//
// Stacking is not enforced here. A caller playing an exclusive effect must
// first clear the stage (see Engine.Play); additive effects simply layer.
type Dispatcher struct {
	table  *EffectTable
	host   *Host
	config ConfigSource
	scaler Scaler
	bus    *Bus
	rng    randSource

	seq  uint64
	last string
}

// NewDispatcher creates a dispatcher over an immutable table.
func NewDispatcher(table *EffectTable, opts DispatcherOptions) *Dispatcher {
	if opts.Config == nil {
		opts.Config = &StaticConfig{}
	}
	if opts.Bus == nil {
		opts.Bus = NewBus()
	}
	return &Dispatcher{
		table:  table,
		host:   opts.Host,
		config: opts.Config,
		scaler: opts.Scaler,
		bus:    opts.Bus,
		rng:    randSource{seed: opts.Seed},
	}
}

// SetScaler replaces the device scaler used for new invocations.
func (d *Dispatcher) SetScaler(s Scaler) {
	d.scaler = s
}

// HasEffect reports whether name dispatches to a handler. Aliases count.
func (d *Dispatcher) HasEffect(name string) bool {
	return d.table.Has(name)
}

// EffectsList returns "none" followed by every listed effect name.
func (d *Dispatcher) EffectsList() []string {
	return append([]string{NoneEffect}, d.table.Names()...)
}

// Definition resolves name (following aliases) to its definition.
func (d *Dispatcher) Definition(name string) (*EffectDefinition, bool) {
	def, _, ok := d.table.Resolve(name, nil)
	return def, ok
}

// LastActive returns the canonical name of the last effect that started.
func (d *Dispatcher) LastActive() string {
	return d.last
}

// Invocation is a resolved effect play: definition found, params merged
// and validated, nothing started yet.
type Invocation struct {
	def    *EffectDefinition
	params Params
	merged map[string]any
}

// Exclusive reports whether the effect clears the stage before it starts.
func (inv *Invocation) Exclusive() bool {
	return inv.def.Stacking == StackExclusive
}

// Name returns the canonical effect name.
func (inv *Invocation) Name() string {
	return inv.def.Name
}

// Prepare resolves name and the caller's overrides without touching the
// stage. Unknown names and invalid params return false; the latter is
// logged.
func (d *Dispatcher) Prepare(name string, overrides map[string]any) (*Invocation, bool) {
	def, ov, ok := d.table.Resolve(name, overrides)
	if !ok {
		return nil, false
	}
	p, merged, err := resolveParams(def.Params, d.config.Config().EffectParams(def.Name), ov)
	if err != nil {
		log.Printf("[lumen] effect %q: %v", name, err)
		return nil, false
	}
	return &Invocation{def: def, params: p, merged: merged}, true
}

// Play runs the effect registered under name with the caller's overrides.
// Unknown names return false with no side effects. Invalid params and
// handler failures are logged and return false.
func (d *Dispatcher) Play(name string, overrides map[string]any) bool {
	inv, ok := d.Prepare(name, overrides)
	if !ok {
		return false
	}
	return d.Invoke(inv)
}

// Invoke runs a prepared play. A handler that fails after creating
// instances has them stopped before Invoke returns false.
func (d *Dispatcher) Invoke(inv *Invocation) bool {
	def := inv.def
	d.seq++
	ctx := &EffectContext{
		Name:   def.Name,
		Tag:    Tag(fmt.Sprintf("effect:%s#%d", def.Name, d.seq)),
		Config: inv.merged,
		Params: inv.params,
		Scaler: d.scaler,
		Pool:   d.host.Pool(),
		Host:   d.host,
		Layer:  d.host.EffectsLayer(),
		Clock:  d.host.Clock(),
		Rand:   d.rng.next(),
	}

	if err := invokeHandler(def.Handler, ctx); err != nil {
		log.Printf("[lumen] effect %q: %v", def.Name, err)
		ctx.release()
		return false
	}

	d.last = def.Name
	d.bus.Publish(Event{Type: EventEffectStarted, Effect: def.Name})
	return true
}

// invokeHandler runs h and converts a panic into an error.
func invokeHandler(h Handler, ctx *EffectContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx)
}
