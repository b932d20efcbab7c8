package lumen

import (
	"math/rand/v2"
	"time"
)

// Handler runs one effect. It receives the execution context by reference
// and builds whatever it needs through it. A returned error (or panic) is
// contained at the dispatch boundary.
type Handler func(ctx *EffectContext) error

// EffectContext is the capability set handed to a Handler.
type EffectContext struct {
	// Name is the canonical effect name (aliases already resolved).
	Name string
	// Tag is unique to this invocation.
	Tag Tag
	// Config is the merged parameter map: defaults, stored namespace,
	// caller overrides.
	Config map[string]any
	// Params is Config decoded into the effect's typed record.
	Params Params

	Scaler Scaler
	Pool   *Pool
	Host   *Host
	// Layer is the effects overlay container.
	Layer *Node
	Clock Clock
	Rand  *rand.Rand

	instances []*Instance
}

// Stage returns the stage dimensions.
func (c *EffectContext) Stage() (w, h float64) {
	return c.Host.StageSize()
}

// StageRect returns the stage rectangle.
func (c *EffectContext) StageRect() Rect {
	return c.Host.Stage()
}

// NewInstance creates the invocation's Instance and arms its hard timeout.
// The timeout is device-scaled; zero disables it.
func (c *EffectContext) NewInstance(timeout time.Duration) *Instance {
	inst := newInstance(c.Name, c.Tag, c.Host, c.Scaler.Duration(timeout))
	c.instances = append(c.instances, inst)
	return inst
}

// release stops every instance the handler created.
func (c *EffectContext) release() {
	for _, inst := range c.instances {
		inst.Stop()
	}
	c.instances = nil
}

// Duration converts a millisecond parameter to a device-scaled duration.
func (c *EffectContext) Duration(ms int) time.Duration {
	return c.Scaler.Duration(time.Duration(ms) * time.Millisecond)
}
