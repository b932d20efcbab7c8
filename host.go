package lumen

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// FrameFunc is a per-tick callback attached to the host loop. It returns true
// while it still needs frames.
type FrameFunc func(dt float64) bool

// Stopper is anything with an idempotent Stop, such as an effect Instance.
type Stopper interface {
	Stop()
}

// PointerFunc receives pointer positions in stage coordinates.
type PointerFunc func(x, y float64)

type pointerListener struct {
	fn      PointerFunc
	removed bool
}

// Overlay layer names, bottom to top.
const (
	layerAura    = "aura"
	layerTheme   = "theme"
	layerEffects = "effects"
)

// HostOptions configures NewHost.
type HostOptions struct {
	Clock  Clock
	Pool   *Pool
	Width  float64
	Height float64
}

// Host is the render-loop host: it owns the stage size, the layered overlay
// container, the particle pool step, the soft-task scheduler and the
// per-frame callback chain.
type Host struct {
	clock Clock
	pool  *Pool
	tasks *Scheduler

	stageW, stageH float64
	zIndex         int

	// Overlay container and its fixed layers; nil until EnsureOverlay.
	root    *Node
	aura    *Node
	theme   *Node
	effects *Node

	running bool
	frames  []FrameFunc
	tracked []Stopper

	pointers     []*pointerListener
	pointerQueue []Vec2
	pointer      Vec2
	hasPointer   bool

	shadersEnabled bool
	debug          bool
	frameCount     uint64
	hudText        string

	// ScreenshotDir is where Screenshot writes PNGs. Empty means
	// "screenshots" in the working directory.
	ScreenshotDir   string
	screenshotQueue []string
}

// NewHost creates a host. Missing options get defaults: the system clock, a
// fresh pool and an 800×600 stage.
func NewHost(opts HostOptions) *Host {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Pool == nil {
		opts.Pool = NewPool()
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	return &Host{
		clock:          opts.Clock,
		pool:           opts.Pool,
		tasks:          newScheduler(opts.Clock),
		stageW:         opts.Width,
		stageH:         opts.Height,
		shadersEnabled: true,
	}
}

// Clock returns the host's wall clock.
func (h *Host) Clock() Clock {
	return h.clock
}

// Pool returns the shared particle pool.
func (h *Host) Pool() *Pool {
	return h.pool
}

// Tasks returns the soft-task scheduler.
func (h *Host) Tasks() *Scheduler {
	return h.tasks
}

// StageSize returns the stage dimensions in pixels.
func (h *Host) StageSize() (w, ht float64) {
	return h.stageW, h.stageH
}

// Stage returns the stage rectangle.
func (h *Host) Stage() Rect {
	return Rect{0, 0, h.stageW, h.stageH}
}

// SetStageSize updates the stage dimensions, e.g. from ebiten's Layout.
func (h *Host) SetStageSize(w, ht float64) {
	if w > 0 {
		h.stageW = w
	}
	if ht > 0 {
		h.stageH = ht
	}
}

// --- Overlay container ---

// EnsureOverlay creates the overlay container and its layers once. Later
// calls return the existing container.
func (h *Host) EnsureOverlay() *Node {
	if h.root != nil {
		return h.root
	}
	h.root = NewContainer("overlay")
	h.root.ZIndex = h.zIndex
	h.aura = NewContainer(layerAura)
	h.theme = NewContainer(layerTheme)
	h.effects = NewContainer(layerEffects)
	h.aura.ZIndex, h.theme.ZIndex, h.effects.ZIndex = 0, 1, 2
	h.root.AddChild(h.aura)
	h.root.AddChild(h.theme)
	h.root.AddChild(h.effects)
	return h.root
}

// OverlayContainer returns the overlay container, or nil when it has not
// been created or was removed.
func (h *Host) OverlayContainer() *Node {
	return h.root
}

// EffectsLayer returns the layer effect handlers attach to.
func (h *Host) EffectsLayer() *Node {
	h.EnsureOverlay()
	return h.effects
}

// ThemeLayer returns the layer the active theme's overlay attaches to.
func (h *Host) ThemeLayer() *Node {
	h.EnsureOverlay()
	return h.theme
}

// AuraLayer returns the bottom layer reserved for the aura glow.
func (h *Host) AuraLayer() *Node {
	h.EnsureOverlay()
	return h.aura
}

// ClearOverlay stops every tracked resource and tears down everything in the
// effect and theme layers. The container itself and the aura layer stay.
func (h *Host) ClearOverlay() {
	h.stopTracked()
	if h.root == nil {
		return
	}
	teardownChildren(h.effects)
	teardownChildren(h.theme)
}

// RemoveOverlay clears and disposes the overlay container.
func (h *Host) RemoveOverlay() {
	h.ClearOverlay()
	if h.root == nil {
		return
	}
	teardownChildren(h.aura)
	h.root.Dispose()
	h.root, h.aura, h.theme, h.effects = nil, nil, nil, nil
}

// SetZIndex sets the overlay stacking order relative to host content.
func (h *Host) SetZIndex(z int) {
	h.zIndex = z
	if h.root != nil {
		h.root.SetZIndex(z)
	}
}

// ZIndex returns the overlay stacking order.
func (h *Host) ZIndex() int {
	return h.zIndex
}

// SetShadersEnabled toggles shader overlays; disabled overlays draw their
// fallback.
func (h *Host) SetShadersEnabled(enabled bool) {
	h.shadersEnabled = enabled
}

// ShadersEnabled reports whether shader overlays may run their programs.
func (h *Host) ShadersEnabled() bool {
	return h.shadersEnabled
}

// --- Resource tracking ---

// Track registers a live resource so global stop and teardown can reach it.
func (h *Host) Track(s Stopper) {
	h.tracked = append(h.tracked, s)
}

// untrack forgets s. Called by a resource's own Stop.
func (h *Host) untrack(s Stopper) {
	for i, t := range h.tracked {
		if t == s {
			copy(h.tracked[i:], h.tracked[i+1:])
			h.tracked[len(h.tracked)-1] = nil
			h.tracked = h.tracked[:len(h.tracked)-1]
			return
		}
	}
}

// TrackedCount returns the number of live tracked resources.
func (h *Host) TrackedCount() int {
	return len(h.tracked)
}

func (h *Host) stopTracked() {
	// Stop untracks, so iterate over a snapshot.
	live := append([]Stopper(nil), h.tracked...)
	for _, s := range live {
		safeCall("tracked resource", s.Stop)
	}
	clear(h.tracked)
	h.tracked = h.tracked[:0]
}

// --- Frame loop ---

// AddFrameFunc appends fn to the per-tick callback chain. Callbacks run in
// registration order, before the pool step.
func (h *Host) AddFrameFunc(fn FrameFunc) {
	h.frames = append(h.frames, fn)
}

// RequestFrame (re)starts the frame loop.
func (h *Host) RequestFrame() {
	h.running = true
}

// StopLoop halts the frame loop. Tasks and timers keep running.
func (h *Host) StopLoop() {
	h.running = false
}

// Running reports whether the frame loop is active.
func (h *Host) Running() bool {
	return h.running
}

// Update advances the host by dt seconds. The order is fixed every tick:
// pointer events, due timers, soft tasks, frame callbacks, pool step. The
// loop idles once no callback wants frames and the pool is empty.
func (h *Host) Update(dt float64) {
	h.frameCount++
	h.dispatchPointer()
	h.tasks.fireTimers()
	h.tasks.step(dt)

	if h.running {
		wants := false
		for _, fn := range h.frames {
			if fn(dt) {
				wants = true
			}
		}
		h.pool.Update(dt, h.Stage())
		if !wants && h.pool.Len() == 0 {
			h.running = false
		}
	}

	if h.debug {
		h.debugCheckPool()
		h.debugLog()
	}
}

// Teardown releases every resource the host owns: tracked resources, tasks,
// timers, particles, pointer listeners and the overlay container. Used when
// the host page goes away; safe to call more than once.
func (h *Host) Teardown() {
	h.stopTracked()
	h.tasks.cancelAll()
	h.pool.ClearAll()
	h.running = false
	h.RemoveOverlay()
	for _, l := range h.pointers {
		l.removed = true
	}
	h.pointers = nil
	h.pointerQueue = h.pointerQueue[:0]
}

// --- Pointer input ---

// AddPointerListener registers fn for pointer moves. The returned function
// removes the listener and is safe to call more than once.
func (h *Host) AddPointerListener(fn PointerFunc) func() {
	l := &pointerListener{fn: fn}
	h.pointers = append(h.pointers, l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		for i, p := range h.pointers {
			if p == l {
				h.pointers = append(h.pointers[:i:i], h.pointers[i+1:]...)
				return
			}
		}
	}
}

// PointerListenerCount returns the number of registered pointer listeners.
func (h *Host) PointerListenerCount() int {
	return len(h.pointers)
}

// InjectPointer queues a pointer move in stage coordinates. Queued moves are
// delivered one per Update.
func (h *Host) InjectPointer(x, y float64) {
	h.pointerQueue = append(h.pointerQueue, Vec2{x, y})
}

// InjectPointerPath queues a straight pointer sweep from (fromX, fromY) to
// (toX, toY) spread over frames updates. Minimum frames is 2.
func (h *Host) InjectPointerPath(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		h.InjectPointer(lerp(fromX, toX, t), lerp(fromY, toY, t))
	}
}

// PendingPointer returns the number of queued pointer moves.
func (h *Host) PendingPointer() int {
	return len(h.pointerQueue)
}

// PollPointer reads the real cursor and queues a move when it changed. Call
// it from the game's Update.
func (h *Host) PollPointer() {
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)
	if h.hasPointer && x == h.pointer.X && y == h.pointer.Y {
		return
	}
	h.InjectPointer(x, y)
}

// Pointer returns the last known pointer position.
func (h *Host) Pointer() (x, y float64, ok bool) {
	return h.pointer.X, h.pointer.Y, h.hasPointer
}

func (h *Host) dispatchPointer() {
	if len(h.pointerQueue) == 0 {
		return
	}
	p := h.pointerQueue[0]
	copy(h.pointerQueue, h.pointerQueue[1:])
	h.pointerQueue = h.pointerQueue[:len(h.pointerQueue)-1]

	h.pointer = p
	h.hasPointer = true
	listeners := append([]*pointerListener(nil), h.pointers...)
	for _, l := range listeners {
		if !l.removed {
			l.fn(p.X, p.Y)
		}
	}
}

// SetDebugMode enables per-frame stats on stderr.
func (h *Host) SetDebugMode(enabled bool) {
	h.debug = enabled
}
