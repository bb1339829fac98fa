package inspect

import (
	"fmt"
	"strings"
)

// Component is a value attached to a scene node.
type Component struct {
	Node  Node
	Value Value
}

// Path reconstructs the slash-separated ancestry of n.
func Path(n Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		parts = append(parts, cur.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Each visits every node of h depth-first in scene order. Returning false
// from fn stops the walk. A node whose accessors panic is skipped: fn sees
// no more of it and its children are not visited, but the walk goes on.
func Each(h Host, fn func(Node) bool) {
	if h == nil {
		return
	}
	var visit func(n Node) bool
	visit = func(n Node) bool {
		if n == nil {
			return true
		}
		more, err := safely(func() bool { return fn(n) })
		if err != nil {
			return true
		}
		if !more {
			return false
		}
		for _, c := range children(n) {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	roots, err := safely(func() []Node { return h.Roots() })
	if err != nil {
		return
	}
	for _, r := range roots {
		if !visit(r) {
			return
		}
	}
}

// safely runs fn, turning a panic into an error.
func safely[T any](fn func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn(), nil
}

func children(n Node) []Node {
	c, _ := safely(n.Children)
	return c
}

func components(n Node) []Value {
	c, _ := safely(n.Components)
	return c
}

// FindByName returns the first active node named exactly name, the way a
// host's global find-by-name only sees active objects.
func FindByName(h Host, name string) Node {
	var found Node
	Each(h, func(n Node) bool {
		if n.Active() && n.Name() == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindNodes returns every node, active or not, accepted by pred.
func FindNodes(h Host, pred func(Node) bool) []Node {
	var out []Node
	Each(h, func(n Node) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindComponents returns every component whose type name is accepted by pred,
// including components on inactive nodes.
func FindComponents(h Host, pred func(typeName string) bool) []Component {
	var out []Component
	Each(h, func(n Node) bool {
		for _, c := range components(n) {
			if c != nil && pred(c.TypeName()) {
				out = append(out, Component{Node: n, Value: c})
			}
		}
		return true
	})
	return out
}

// FirstComponent returns the first component whose type name equals typeName
// ignoring case.
func FirstComponent(h Host, typeName string) (Component, bool) {
	var found Component
	ok := false
	Each(h, func(n Node) bool {
		for _, c := range components(n) {
			if c != nil && strings.EqualFold(c.TypeName(), typeName) {
				found, ok = Component{Node: n, Value: c}, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// Labels returns the non-empty text labels of n and its descendants in
// depth-first order.
func Labels(n Node) []string {
	var out []string
	var visit func(Node)
	visit = func(cur Node) {
		if cur == nil {
			return
		}
		if l, ok := cur.(Labeled); ok {
			if s, ok := l.Text(); ok && s != "" {
				out = append(out, s)
			}
		}
		for _, c := range children(cur) {
			visit(c)
		}
	}
	visit(n)
	return out
}

// FirstText returns the first non-empty label found on n or its descendants.
func FirstText(n Node) string {
	if n == nil {
		return ""
	}
	if l, ok := n.(Labeled); ok {
		if s, ok := l.Text(); ok && s != "" {
			return s
		}
	}
	for _, c := range children(n) {
		if s := FirstText(c); s != "" {
			return s
		}
	}
	return ""
}
