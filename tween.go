package lumen

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animation is a frame-driven tween an Instance can run. See
// Instance.Animate.
type Animation interface {
	Update(dt float32)
	Finished() bool
}

// TweenGroup drives up to four float64 fields of one overlay node with
// gween tweens. A group whose node has been disposed finishes without
// writing.
type TweenGroup struct {
	tweens [4]*gween.Tween
	fields [4]*float64
	count  int
	target *Node
	done   bool
}

func newTweenGroup(node *Node) *TweenGroup {
	return &TweenGroup{target: node}
}

func (g *TweenGroup) add(field *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g.tweens[g.count] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[g.count] = field
	g.count++
	return g
}

// Update advances the group by dt seconds.
func (g *TweenGroup) Update(dt float32) {
	if g.done {
		return
	}
	if g.target.IsDisposed() {
		g.done = true
		return
	}
	finished := true
	for i := range g.count {
		v, end := g.tweens[i].Update(dt)
		*g.fields[i] = float64(v)
		finished = finished && end
	}
	g.done = finished
}

// Finished reports whether every tween in the group reached its target.
func (g *TweenGroup) Finished() bool {
	return g.done
}

// TweenAlpha fades node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node).add(&node.Alpha, to, duration, fn)
}

// TweenTint shifts the RGB channels of node.Color toward to. The color's
// own alpha is left alone; fade the node with TweenAlpha.
func TweenTint(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node).
		add(&node.Color.R, to.R, duration, fn).
		add(&node.Color.G, to.G, duration, fn).
		add(&node.Color.B, to.B, duration, fn)
}

// TweenSequence plays animations back to back. Each step is built when the
// previous one finishes, so it starts from the node's current values.
type TweenSequence struct {
	steps   []func() Animation
	current Animation
	index   int
	done    bool
}

// NewTweenSequence creates a sequence from step constructors.
func NewTweenSequence(steps ...func() Animation) *TweenSequence {
	return &TweenSequence{steps: steps}
}

// Update advances the running step by dt seconds. Leftover time of a
// finishing step is dropped; the next step starts on the following frame.
func (s *TweenSequence) Update(dt float32) {
	if s.done {
		return
	}
	if s.current == nil {
		if s.index >= len(s.steps) {
			s.done = true
			return
		}
		s.current = s.steps[s.index]()
		s.index++
	}
	s.current.Update(dt)
	if s.current.Finished() {
		s.current = nil
		s.done = s.index >= len(s.steps)
	}
}

// Finished reports whether the last step completed.
func (s *TweenSequence) Finished() bool {
	return s.done
}

// Animate runs anims as the instance's loop and stops the instance once all
// of them finished.
func (i *Instance) Animate(anims ...Animation) {
	i.Run(func(dt float64) bool {
		running := false
		for _, a := range anims {
			a.Update(float32(dt))
			running = running || !a.Finished()
		}
		return running
	})
}
