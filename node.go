package lumen

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// NodeKind distinguishes rendering behavior for a Node.
type NodeKind uint8

const (
	NodeContainer NodeKind = iota // group node with no visual output
	NodeRect                      // solid color rectangle
	NodeSurface                   // persistent raster surface
	NodeShader                    // full-rect Kage shader
	NodeDraw                      // immediate-mode callback
)

// DrawFunc renders a NodeDraw node. alpha is the node's inherited opacity.
type DrawFunc func(dst *ebiten.Image, n *Node, alpha float64)

// nodeIDCounter is a plain counter; nodes are only built on the game goroutine.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is an overlay element. A single flat struct is used for all kinds to
// avoid interface dispatch on the draw path.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	// Hierarchy
	Parent   *Node
	children []*Node

	// Geometry in stage pixels. Children are not offset by their parent.
	X, Y          float64
	Width, Height float64

	// Appearance
	Alpha     float64
	Color     Color
	BlendMode BlendMode
	Visible   bool
	ZIndex    int

	Surface *Surface       // NodeSurface
	Shader  *ShaderOverlay // NodeShader
	Draw    DrawFunc       // NodeDraw

	// OnStop is the node's registered stop hook, invoked once by teardown
	// before the node is disposed.
	OnStop func()

	UserData any

	disposed       bool
	childrenSorted bool
	sortedChildren []*Node // reused buffer for ZIndex-sorted draw order
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Alpha = 1
	n.Color = ColorWhite
	n.Visible = true
	n.childrenSorted = true
}

// NewContainer creates a group node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Kind: NodeContainer}
	nodeDefaults(n)
	return n
}

// NewRect creates a solid color rectangle.
func NewRect(name string, c Color, bounds Rect) *Node {
	n := &Node{Name: name, Kind: NodeRect}
	nodeDefaults(n)
	n.Color = c
	n.X, n.Y, n.Width, n.Height = bounds.X, bounds.Y, bounds.Width, bounds.Height
	return n
}

// NewSurfaceNode creates a node that displays a Surface at its position.
func NewSurfaceNode(name string, s *Surface) *Node {
	n := &Node{Name: name, Kind: NodeSurface, Surface: s}
	nodeDefaults(n)
	if s != nil {
		n.Width, n.Height = float64(s.Width()), float64(s.Height())
	}
	return n
}

// NewShaderNode creates a node that runs a shader over its bounds.
func NewShaderNode(name string, sh *ShaderOverlay, bounds Rect) *Node {
	n := &Node{Name: name, Kind: NodeShader, Shader: sh}
	nodeDefaults(n)
	n.X, n.Y, n.Width, n.Height = bounds.X, bounds.Y, bounds.Width, bounds.Height
	return n
}

// NewDrawNode creates a node rendered by fn.
func NewDrawNode(name string, fn DrawFunc) *Node {
	n := &Node{Name: name, Kind: NodeDraw, Draw: fn}
	nodeDefaults(n)
	return n
}

// Bounds returns the node rectangle.
func (n *Node) Bounds() Rect {
	return Rect{n.X, n.Y, n.Width, n.Height}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("lumen: cannot add nil child")
	}
	if child.disposed {
		panic("lumen: cannot add disposed node " + child.Name)
	}
	if isAncestor(child, n) {
		panic("lumen: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	n.childrenSorted = false
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("lumen: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	n.childrenSorted = false
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// FindChild returns the first direct child with the given name.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.ZIndex == z {
		return
	}
	n.ZIndex = z
	if n.Parent != nil {
		n.Parent.childrenSorted = false
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Repeated calls are no-ops.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.sortedChildren = nil
	n.Parent = nil
	if n.Surface != nil {
		n.Surface.Dispose()
		n.Surface = nil
	}
	n.Shader = nil
	n.Draw = nil
	n.OnStop = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// teardownNode invokes the node's stop hook (if any) and disposes it.
// Safe on nil and on already-disposed nodes.
func teardownNode(n *Node) {
	if n == nil || n.disposed {
		return
	}
	if hook := n.OnStop; hook != nil {
		n.OnStop = nil
		safeCall("stop hook "+n.Name, hook)
	}
	n.Dispose()
}

// teardownChildren tears down every child of n, leaving n itself in place.
func teardownChildren(n *Node) {
	if n == nil {
		return
	}
	kids := append([]*Node(nil), n.children...)
	for _, c := range kids {
		c := c
		safeCall("node "+c.Name, func() { teardownNode(c) })
	}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// drawOrder returns children sorted by ZIndex, insertion order breaking ties.
func (n *Node) drawOrder() []*Node {
	if n.childrenSorted && len(n.sortedChildren) == len(n.children) {
		return n.sortedChildren
	}
	n.sortedChildren = append(n.sortedChildren[:0], n.children...)
	sort.SliceStable(n.sortedChildren, func(i, j int) bool {
		return n.sortedChildren[i].ZIndex < n.sortedChildren[j].ZIndex
	})
	n.childrenSorted = true
	return n.sortedChildren
}

// countNodes returns the number of nodes in the subtree rooted at n.
func countNodes(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.children {
		total += countNodes(c)
	}
	return total
}
