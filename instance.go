package lumen

import (
	"time"
)

// Instance is one running effect: the overlay nodes, particles, animation
// task and hard timeout a single handler invocation created. Stop releases
// all of them exactly once.
//
// The dispatcher does not keep instances. The host tracks them so that a
// global stop or host teardown can reach them; the instance untracks itself
// when stopped.
type Instance struct {
	Name string

	tag   Tag
	host  *Host
	nodes []*Node
	task  *Task
	timer *Timer
	hooks []func()

	stopped bool
}

func newInstance(name string, tag Tag, host *Host, timeout time.Duration) *Instance {
	inst := &Instance{Name: name, tag: tag, host: host}
	host.Track(inst)
	if timeout > 0 {
		inst.timer = host.Tasks().After(timeout, inst.Stop)
	}
	return inst
}

// Tag returns the owner tag stamped on the instance's particles.
func (i *Instance) Tag() Tag {
	return i.tag
}

// Stopped reports whether Stop has run.
func (i *Instance) Stopped() bool {
	return i.stopped
}

// Attach adds n to the effects layer and makes the instance its owner.
func (i *Instance) Attach(n *Node) *Node {
	if i.stopped {
		teardownNode(n)
		return n
	}
	i.host.EffectsLayer().AddChild(n)
	i.nodes = append(i.nodes, n)
	return n
}

// Spawn tags ps with the instance tag, adds them to the pool and wakes the
// frame loop.
func (i *Instance) Spawn(ps ...*Particle) {
	if i.stopped {
		return
	}
	for _, p := range ps {
		if p != nil {
			p.Tag = i.tag
		}
	}
	i.host.Pool().Add(ps...)
	i.host.RequestFrame()
}

// Run registers the instance's animation loop. When fn returns false the
// instance stops itself. An instance has at most one loop; a second call
// replaces the first.
func (i *Instance) Run(fn TaskFunc) {
	if i.stopped {
		return
	}
	i.task.Cancel()
	i.task = i.host.Tasks().Every(func(dt float64) bool {
		if fn(dt) {
			return true
		}
		i.Stop()
		return false
	})
}

// OnStop registers an extra teardown hook. Hooks run in reverse order of
// registration.
func (i *Instance) OnStop(fn func()) {
	if i.stopped {
		safeCall("stop hook "+i.Name, fn)
		return
	}
	i.hooks = append(i.hooks, fn)
}

// Stop tears the instance down: timeout, loop, hooks, nodes, particles.
// Repeated calls are no-ops.
func (i *Instance) Stop() {
	if i.stopped {
		return
	}
	i.stopped = true

	i.timer.Cancel()
	i.timer = nil
	i.task.Cancel()
	i.task = nil

	for k := len(i.hooks) - 1; k >= 0; k-- {
		safeCall("stop hook "+i.Name, i.hooks[k])
	}
	i.hooks = nil

	for _, n := range i.nodes {
		n := n
		safeCall("node "+n.Name, func() { teardownNode(n) })
	}
	i.nodes = nil

	safeCall("particles "+string(i.tag), func() { i.host.Pool().ClearTag(i.tag) })
	i.host.untrack(i)
}
