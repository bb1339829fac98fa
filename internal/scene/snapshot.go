package scene

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"smtdump/internal/inspect"
)

// A snapshot looks like:
//
//	roots:
//	  - name: Managers
//	    children:
//	      - name: AchievementsManager
//	        components:
//	          - type: AchievementsManager
//	            fields:
//	              achievementStrings: [A, employee_B, C]
//	              unlockedArray: [true, false, true]
//	            properties:
//	              Progress: !err "save not loaded"
//	  - name: Canvas
//	    children:
//	      - name: Buttons_Bar
//	        rect: {width: 400, height: 60, x: 0, y: -30}
//	        children:
//	          - name: Hire
//	            button: true
//	            text: Hire staff
//
// Member order follows key order. A mapping value is a nested object whose
// optional "$type" key names its type; a sequence is a collection; a value
// tagged !err is a member whose read fails with the tagged message.

// ErrTag marks a member that fails to read.
const ErrTag = "!err"

type snapshotDoc struct {
	Roots []nodeDoc `yaml:"roots"`
}

type nodeDoc struct {
	Name       string         `yaml:"name"`
	Active     *bool          `yaml:"active"`
	Text       *string        `yaml:"text"`
	Button     bool           `yaml:"button"`
	Rect       *rectDoc       `yaml:"rect"`
	Components []componentDoc `yaml:"components"`
	Children   []nodeDoc      `yaml:"children"`
}

type rectDoc struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

type componentDoc struct {
	Type       string    `yaml:"type"`
	Fields     yaml.Node `yaml:"fields"`
	Properties yaml.Node `yaml:"properties"`
}

// Load reads a snapshot file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse builds a scene from snapshot YAML.
func Parse(data []byte) (*Scene, error) {
	var doc snapshotDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	b := &builder{active: make(map[*yaml.Node]bool)}
	roots := make([]*Node, 0, len(doc.Roots))
	for i := range doc.Roots {
		n, err := b.buildNode(&doc.Roots[i], fmt.Sprintf("roots[%d]", i))
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	return New(roots...), nil
}

// maxAliasExpansions bounds the work a snapshot can cause through aliases
// that are reused many times.
const maxAliasExpansions = 10000

// builder turns decoded YAML into scene values. It tracks the mappings and
// sequences being built so an alias back into one of them is an error
// instead of endless recursion.
type builder struct {
	active     map[*yaml.Node]bool
	expansions int
}

// enter resolves n and marks the result as being built. The returned func
// must be called once the node is done.
func (b *builder) enter(n *yaml.Node) (*yaml.Node, func(), error) {
	target := resolve(n)
	if n.Kind == yaml.AliasNode {
		if b.expansions++; b.expansions > maxAliasExpansions {
			return nil, nil, fmt.Errorf("line %d: too many alias expansions (limit %d)", n.Line, maxAliasExpansions)
		}
	}
	if target.Kind != yaml.MappingNode && target.Kind != yaml.SequenceNode {
		return target, func() {}, nil
	}
	if b.active[target] {
		return nil, nil, fmt.Errorf("recursive alias *%s at line %d", n.Value, n.Line)
	}
	b.active[target] = true
	return target, func() { delete(b.active, target) }, nil
}

func (b *builder) buildNode(d *nodeDoc, where string) (*Node, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%s: node has no name", where)
	}
	n := NewNode(d.Name)
	where = where + "(" + d.Name + ")"
	if d.Active != nil {
		n.SetActive(*d.Active)
	}
	if d.Text != nil {
		n.SetText(*d.Text)
	}
	if d.Rect != nil {
		n.SetRect(inspect.Rect{Width: d.Rect.Width, Height: d.Rect.Height, X: d.Rect.X, Y: d.Rect.Y})
	}
	n.SetInteractive(d.Button)

	for i := range d.Components {
		c, err := b.buildComponent(&d.Components[i])
		if err != nil {
			return nil, fmt.Errorf("%s.components[%d]: %w", where, i, err)
		}
		n.components = append(n.components, c)
	}
	for i := range d.Children {
		c, err := b.buildNode(&d.Children[i], fmt.Sprintf("%s.children[%d]", where, i))
		if err != nil {
			return nil, err
		}
		n.Add(c)
	}
	return n, nil
}

func (b *builder) buildComponent(d *componentDoc) (inspect.Value, error) {
	if d.Type == "" {
		return nil, errors.New("component has no type")
	}
	obj := &object{typ: d.Type}
	for _, part := range []struct {
		node *yaml.Node
		kind inspect.MemberKind
	}{
		{&d.Fields, inspect.Field},
		{&d.Properties, inspect.Property},
	} {
		if part.node.Kind == 0 {
			continue
		}
		members, _, err := b.buildMembers(part.node, part.kind)
		if err != nil {
			return nil, err
		}
		obj.members = append(obj.members, members...)
	}
	return obj, nil
}

// buildMembers turns a mapping into members of the given kind, returning the
// "$type" value when present.
func (b *builder) buildMembers(n *yaml.Node, kind inspect.MemberKind) ([]inspect.Member, string, error) {
	n, done, err := b.enter(n)
	if err != nil {
		return nil, "", err
	}
	defer done()
	return b.mappingMembers(n, kind)
}

// mappingMembers is buildMembers on an already entered node.
func (b *builder) mappingMembers(n *yaml.Node, kind inspect.MemberKind) ([]inspect.Member, string, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil, "", nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, "", fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	var (
		members []inspect.Member
		typ     string
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if key == "$type" {
			typ = resolve(val).Value
			continue
		}
		m, err := b.buildMember(key, kind, val)
		if err != nil {
			return nil, "", err
		}
		members = append(members, m)
	}
	return members, typ, nil
}

func (b *builder) buildMember(name string, kind inspect.MemberKind, n *yaml.Node) (inspect.Member, error) {
	if r := resolve(n); r.Tag == ErrTag {
		reason := r.Value
		if reason == "" {
			reason = "unreadable"
		}
		return inspect.NewMember(name, kind, "object", inspect.Nested, func() (inspect.Value, error) {
			return nil, errors.New(reason)
		}), nil
	}
	v, err := b.buildValue(n)
	if err != nil {
		return inspect.Member{}, fmt.Errorf("member %s: %w", name, err)
	}
	m := inspect.NewMember(name, kind, v.TypeName(), v.Kind(), func() (inspect.Value, error) { return v, nil })
	switch x := v.(type) {
	case leaf:
		m.Basic = x.basic
	case *list:
		m.Elem, m.ElemType = x.elem, x.elemType
	}
	if v.Kind() == inspect.Null {
		m.Shape = inspect.Nested
	}
	return m, nil
}

func (b *builder) buildValue(n *yaml.Node) (inspect.Value, error) {
	n, done, err := b.enter(n)
	if err != nil {
		return nil, err
	}
	defer done()
	switch n.Kind {
	case yaml.ScalarNode:
		return buildLeaf(n)
	case yaml.SequenceNode:
		l := &list{}
		for _, c := range n.Content {
			if r := resolve(c); r.Tag == ErrTag {
				l.items = append(l.items, item{err: errors.New(r.Value)})
				continue
			}
			v, err := b.buildValue(c)
			if err != nil {
				return nil, err
			}
			l.items = append(l.items, item{v: v})
		}
		l.elem, l.elemType = elementType(l.items)
		return l, nil
	case yaml.MappingNode:
		members, typ, err := b.mappingMembers(n, inspect.Field)
		if err != nil {
			return nil, err
		}
		if typ == "" {
			typ = "Object"
		}
		return &object{typ: typ, members: members}, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func buildLeaf(n *yaml.Node) (inspect.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return inspect.NullValue("object"), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return leaf{typ: "bool", basic: inspect.Bool, scalar: b, text: strconv.FormatBool(b)}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return leaf{typ: "int", basic: inspect.Int, scalar: i, text: strconv.FormatInt(i, 10)}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return leaf{typ: "float64", basic: inspect.Float, scalar: f, text: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	default:
		return leaf{typ: "string", basic: inspect.String, scalar: n.Value, text: n.Value}, nil
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// elementType names the common type of the items, or "object" when they
// disagree.
func elementType(items []item) (inspect.Basic, string) {
	var (
		basic inspect.Basic
		typ   string
	)
	for _, it := range items {
		if it.v == nil || it.v.Kind() == inspect.Null {
			continue
		}
		b := inspect.Other
		if l, ok := it.v.(leaf); ok {
			b = l.basic
		}
		if typ == "" {
			basic, typ = b, it.v.TypeName()
			continue
		}
		if it.v.TypeName() != typ {
			return inspect.Other, "object"
		}
	}
	if typ == "" {
		return inspect.Other, "object"
	}
	return basic, typ
}

// ---------------------------------------------------------------------------
// Snapshot values
// ---------------------------------------------------------------------------

type leaf struct {
	typ    string
	basic  inspect.Basic
	scalar any
	text   string
}

func (l leaf) Kind() inspect.Kind { return inspect.Leaf }
func (l leaf) TypeName() string   { return l.typ }
func (l leaf) String() string     { return l.text }
func (l leaf) Scalar() any        { return l.scalar }

type object struct {
	typ     string
	members []inspect.Member
}

func (o *object) Kind() inspect.Kind        { return inspect.Nested }
func (o *object) TypeName() string          { return o.typ }
func (o *object) String() string            { return o.typ }
func (o *object) Scalar() any               { return nil }
func (o *object) Members() []inspect.Member { return append([]inspect.Member(nil), o.members...) }

type item struct {
	v   inspect.Value
	err error
}

type list struct {
	items    []item
	elem     inspect.Basic
	elemType string
}

func (l *list) Kind() inspect.Kind { return inspect.Collection }
func (l *list) TypeName() string   { return "[]" + l.elemType }
func (l *list) String() string     { return fmt.Sprintf("%s len=%d", l.TypeName(), len(l.items)) }
func (l *list) Scalar() any        { return nil }
func (l *list) Len() int           { return len(l.items) }

func (l *list) Elem(i int) (inspect.Value, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	it := l.items[i]
	if it.err != nil {
		return nil, it.err
	}
	return it.v, nil
}
