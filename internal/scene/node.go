// Package scene is an in-process scene-graph host: named nodes with
// children, attached components and optional UI capabilities. Scenes are
// built in code or loaded from YAML snapshots of a running host.
package scene

import (
	"sync"

	"smtdump/internal/inspect"
)

// Node is one scene-graph node. A node is active only when it and every
// ancestor are active.
type Node struct {
	name       string
	parent     *Node
	children   []*Node
	components []inspect.Value
	active     bool

	text        string
	hasText     bool
	rect        inspect.Rect
	hasRect     bool
	interactive bool
}

// NewNode returns an active node with no children.
func NewNode(name string) *Node {
	return &Node{name: name, active: true}
}

// Add appends children and re-parents them under n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// With attaches components. Plain Go values are bound through inspect.Of.
func (n *Node) With(components ...any) *Node {
	for _, c := range components {
		n.components = append(n.components, inspect.Of(c))
	}
	return n
}

func (n *Node) SetText(s string) *Node {
	n.text, n.hasText = s, true
	return n
}

func (n *Node) SetRect(r inspect.Rect) *Node {
	n.rect, n.hasRect = r, true
	return n
}

func (n *Node) SetInteractive(b bool) *Node {
	n.interactive = b
	return n
}

func (n *Node) SetActive(b bool) *Node {
	n.active = b
	return n
}

func (n *Node) Name() string { return n.name }

func (n *Node) Parent() inspect.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []inspect.Node {
	out := make([]inspect.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Components() []inspect.Value {
	return append([]inspect.Value(nil), n.components...)
}

func (n *Node) Active() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.active {
			return false
		}
	}
	return true
}

func (n *Node) Interactive() bool { return n.interactive }

func (n *Node) Text() (string, bool) { return n.text, n.hasText }

func (n *Node) Geometry() (inspect.Rect, bool) { return n.rect, n.hasRect }

// Scene is a set of root nodes. It is safe to read while another goroutine
// swaps its contents with Replace.
type Scene struct {
	mu    sync.RWMutex
	roots []*Node
}

// New returns a scene with the given roots in scene order.
func New(roots ...*Node) *Scene {
	return &Scene{roots: roots}
}

func (s *Scene) Roots() []inspect.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inspect.Node, 0, len(s.roots))
	for _, r := range s.roots {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Replace swaps in the roots of next. Reports already running keep the
// nodes they captured.
func (s *Scene) Replace(next *Scene) {
	next.mu.RLock()
	roots := append([]*Node(nil), next.roots...)
	next.mu.RUnlock()

	s.mu.Lock()
	s.roots = roots
	s.mu.Unlock()
}

// Len returns the number of nodes in the scene.
func (s *Scene) Len() int {
	n := 0
	inspect.Each(s, func(inspect.Node) bool {
		n++
		return true
	})
	return n
}
