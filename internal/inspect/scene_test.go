package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a host node whose child or component accessors can fail.
type fakeNode struct {
	name       string
	parent     *fakeNode
	children   []*fakeNode
	components []Value
	badKids    bool
	badComps   bool
}

func (n *fakeNode) Name() string { return n.name }
func (n *fakeNode) Active() bool { return true }

func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Children() []Node {
	if n.badKids {
		panic("children destroyed")
	}
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *fakeNode) Components() []Value {
	if n.badComps {
		panic("components destroyed")
	}
	return n.components
}

func (n *fakeNode) add(c *fakeNode) *fakeNode {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

type fakeHost []*fakeNode

func (h fakeHost) Roots() []Node {
	out := make([]Node, len(h))
	for i, r := range h {
		out[i] = r
	}
	return out
}

type counter struct{ n int }

func TestEach_SkipsNodesWithFailingAccessors(t *testing.T) {
	root := &fakeNode{name: "Root"}
	broken := root.add(&fakeNode{name: "Broken", badKids: true, badComps: true})
	broken.add(&fakeNode{name: "Hidden"})
	root.add(&fakeNode{name: "Shop", components: []Value{Reflect(&counter{n: 3})}})
	h := fakeHost{root, {name: "Other"}}

	var seen []string
	Each(h, func(n Node) bool {
		seen = append(seen, n.Name())
		return true
	})
	assert.Equal(t, []string{"Root", "Broken", "Shop", "Other"}, seen)

	found := FindComponents(h, func(string) bool { return true })
	require.Len(t, found, 1)
	assert.Equal(t, "Shop", found[0].Node.Name())
	assert.Equal(t, "Root/Shop", Path(found[0].Node))

	c, ok := FirstComponent(h, "counter")
	require.True(t, ok)
	assert.Equal(t, "Shop", c.Node.Name())

	assert.Empty(t, Labels(broken))
	assert.Equal(t, "", FirstText(broken))
}

func TestEach_StopsWhenAsked(t *testing.T) {
	root := &fakeNode{name: "Root"}
	root.add(&fakeNode{name: "A"})
	root.add(&fakeNode{name: "B"})

	var seen []string
	Each(fakeHost{root}, func(n Node) bool {
		seen = append(seen, n.Name())
		return n.Name() != "A"
	})
	assert.Equal(t, []string{"Root", "A"}, seen)
}
