package lumen

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constructor defaults ---

func TestNewContainerDefaults(t *testing.T) {
	n := NewContainer("test")
	assertNodeDefaults(t, n, "test", NodeContainer)
}

func TestNewRectDefaults(t *testing.T) {
	c := Color{1, 0, 0, 1}
	n := NewRect("r", c, Rect{1, 2, 30, 40})
	assertNodeDefaults(t, n, "r", NodeRect)
	if n.Color != c {
		t.Errorf("Color = %v, want %v", n.Color, c)
	}
	if n.Bounds() != (Rect{1, 2, 30, 40}) {
		t.Errorf("Bounds = %v, want {1 2 30 40}", n.Bounds())
	}
}

func TestNewSurfaceNodeSize(t *testing.T) {
	s := NewSurface(64, 32, nil)
	n := NewSurfaceNode("s", s)
	assertNodeDefaults(t, n, "s", NodeSurface)
	if n.Width != 64 || n.Height != 32 {
		t.Errorf("size = (%v, %v), want (64, 32)", n.Width, n.Height)
	}
	if s.Allocated() {
		t.Error("surface should stay unallocated until drawn")
	}
}

func TestNewDrawNodeDefaults(t *testing.T) {
	n := NewDrawNode("d", func(*ebiten.Image, *Node, float64) {})
	assertNodeDefaults(t, n, "d", NodeDraw)
	if n.Draw == nil {
		t.Error("Draw should be set")
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, kind NodeKind) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Kind != kind {
		t.Errorf("Kind = %d, want %d", n.Kind, kind)
	}
	if n.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", n.Alpha)
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
}

// --- Unique IDs ---

func TestUniqueIDs(t *testing.T) {
	a := NewContainer("a")
	b := NewContainer("b")
	c := NewRect("c", ColorWhite, Rect{})
	if a.ID == b.ID || b.ID == c.ID || a.ID == c.ID {
		t.Errorf("IDs should be unique: %d, %d, %d", a.ID, b.ID, c.ID)
	}
}

// --- AddChild ---

func TestAddChildBasic(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", parent.NumChildren())
	}
	if parent.FindChild("child") != child {
		t.Error("FindChild should return child")
	}
}

func TestAddChildReparent(t *testing.T) {
	p1 := NewContainer("p1")
	p2 := NewContainer("p2")
	child := NewContainer("child")

	p1.AddChild(child)
	p2.AddChild(child)
	if p1.NumChildren() != 0 {
		t.Error("p1 should have 0 children after reparent")
	}
	if p2.NumChildren() != 1 {
		t.Error("p2 should have 1 child")
	}
	if child.Parent != p2 {
		t.Error("child.Parent should be p2")
	}
}

func TestAddChildCyclePanic(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for cycle")
		}
	}()
	child.AddChild(parent)
}

func TestAddChildDisposedPanic(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	child.Dispose()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for disposed child")
		}
	}()
	parent.AddChild(child)
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := NewContainer("orphan")
	n.RemoveFromParent() // should not panic
	if n.Parent != nil {
		t.Error("Parent should be nil")
	}
}

// --- Draw order ---

func TestDrawOrderByZIndex(t *testing.T) {
	parent := NewContainer("parent")
	a := NewContainer("a")
	b := NewContainer("b")
	c := NewContainer("c")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)
	a.SetZIndex(5)

	got := parent.drawOrder()
	want := []*Node{b, c, a}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drawOrder()[%d] = %s, want %s", i, got[i].Name, want[i].Name)
		}
	}

	a.SetZIndex(-1)
	if parent.drawOrder()[0] != a {
		t.Error("a should draw first after ZIndex change")
	}
}

// --- Dispose and teardown ---

func TestDispose(t *testing.T) {
	root := NewContainer("root")
	parent := NewContainer("parent")
	child := NewContainer("child")
	root.AddChild(parent)
	parent.AddChild(child)

	parent.Dispose()

	if !parent.IsDisposed() || !child.IsDisposed() {
		t.Error("parent and child should be disposed")
	}
	if parent.ID != 0 || child.ID != 0 {
		t.Error("disposed nodes should have ID = 0")
	}
	if root.NumChildren() != 0 {
		t.Error("root should have 0 children after dispose")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	n := NewContainer("n")
	n.Dispose()
	n.Dispose() // should not panic
	if !n.IsDisposed() {
		t.Error("should still be disposed")
	}
}

func TestTeardownRunsStopHookOnce(t *testing.T) {
	n := NewContainer("n")
	calls := 0
	n.OnStop = func() { calls++ }

	teardownNode(n)
	teardownNode(n)
	teardownNode(nil)

	if calls != 1 {
		t.Errorf("stop hook calls = %d, want 1", calls)
	}
	if !n.IsDisposed() {
		t.Error("node should be disposed")
	}
}

func TestTeardownChildrenSurvivesPanickingHook(t *testing.T) {
	layer := NewContainer("layer")
	bad := NewContainer("bad")
	bad.OnStop = func() { panic("boom") }
	good := NewContainer("good")
	stopped := false
	good.OnStop = func() { stopped = true }
	layer.AddChild(bad)
	layer.AddChild(good)

	teardownChildren(layer)

	if layer.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", layer.NumChildren())
	}
	if !stopped {
		t.Error("good node's hook should still run")
	}
	if !bad.IsDisposed() {
		t.Error("bad node should be disposed despite its hook panicking")
	}
	if layer.IsDisposed() {
		t.Error("layer itself should stay")
	}
}

func TestCountNodes(t *testing.T) {
	root := NewContainer("root")
	a := NewContainer("a")
	root.AddChild(a)
	a.AddChild(NewContainer("b"))
	root.AddChild(NewContainer("c"))
	if got := countNodes(root); got != 4 {
		t.Errorf("countNodes = %d, want 4", got)
	}
	if got := countNodes(nil); got != 0 {
		t.Errorf("countNodes(nil) = %d, want 0", got)
	}
}
