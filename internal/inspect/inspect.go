// Package inspect is the only part of smtdump that touches host objects.
//
// Host objects are seen through a small capability set: a Value may be an
// Object (named members), a List (ordered elements) or a leaf, and scene
// nodes expose their name, parent, children and attached components. Every
// accessor is isolated so a failing read becomes an error value instead of a
// panic travelling up into the walker.
package inspect

import (
	"fmt"
	"strings"
)

// Kind is the shape of a value or of a member's declared type.
type Kind int

const (
	Leaf Kind = iota
	Collection
	Nested
	Null
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Collection:
		return "collection"
	case Nested:
		return "nested"
	case Null:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Basic is the scalar family of a leaf type.
type Basic int

const (
	Other Basic = iota
	Bool
	Int
	Uint
	Float
	String
	Enum
)

// MemberKind tells fields apart from properties. Fields are always listed
// before properties.
type MemberKind string

const (
	Field    MemberKind = "Field"
	Property MemberKind = "Prop "
)

// Value is one adapted host value.
type Value interface {
	Kind() Kind
	TypeName() string
	// String renders the value for a report line.
	String() string
	// Scalar returns a normalized bool, int64, uint64, float64 or string for
	// leaves and nil for everything else.
	Scalar() any
}

// Object is a value with named members.
type Object interface {
	Value
	Members() []Member
}

// List is a value with ordered elements.
type List interface {
	Value
	Len() int
	Elem(i int) (Value, error)
}

// Member is a named slot on an Object.
type Member struct {
	Name     string
	Kind     MemberKind
	Type     string
	Shape    Kind
	Basic    Basic
	Elem     Basic
	ElemType string

	get func() (Value, error)
}

// NewMember builds a member whose value is produced by get. Bindings outside
// this package (scene snapshots) use it to expose their own slots.
func NewMember(name string, kind MemberKind, typ string, shape Kind, get func() (Value, error)) Member {
	return Member{Name: name, Kind: kind, Type: typ, Shape: shape, get: get}
}

// Read returns the member's current value. A panic or error raised by the
// host accessor is returned as an error; Read itself never panics.
func (m Member) Read() (v Value, err error) {
	if m.get == nil {
		return nil, fmt.Errorf("member %s has no accessor", m.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	v, err = m.get()
	if err == nil && v == nil {
		v = NullValue(m.Type)
	}
	return v, err
}

// Rect is the layout geometry of a UI node.
type Rect struct {
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// Node is a named scene-graph node.
type Node interface {
	Name() string
	Parent() Node
	Children() []Node
	Components() []Value
	Active() bool
}

// Interactive is implemented by nodes that can report whether they accept
// user input (a button).
type Interactive interface {
	Interactive() bool
}

// Labeled is implemented by nodes carrying a text label.
type Labeled interface {
	Text() (string, bool)
}

// Laidout is implemented by nodes carrying layout geometry.
type Laidout interface {
	Geometry() (Rect, bool)
}

// Host is the live scene owned by the host process.
type Host interface {
	Roots() []Node
}

type nullValue struct{ typ string }

// NullValue is the value of a nil slot of the given type.
func NullValue(typ string) Value { return nullValue{typ: typ} }

func (n nullValue) Kind() Kind       { return Null }
func (n nullValue) TypeName() string { return n.typ }
func (n nullValue) String() string   { return "<null>" }
func (n nullValue) Scalar() any      { return nil }

// Ordered puts fields before properties, keeping each group in order.
func Ordered(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, kind := range []MemberKind{Field, Property} {
		for _, m := range members {
			if m.Kind == kind {
				out = append(out, m)
			}
		}
	}
	return out
}

// Lookup finds a member by exact name, fields before properties.
func Lookup(v Value, name string) (Member, bool) {
	obj, ok := v.(Object)
	if !ok {
		return Member{}, false
	}
	for _, m := range Ordered(obj.Members()) {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// AsBool interprets a leaf as a boolean the way a loose host conversion
// would: booleans as-is, numbers by non-zero, strings by parse.
func AsBool(v Value) bool {
	if v == nil {
		return false
	}
	switch s := v.Scalar().(type) {
	case bool:
		return s
	case int64:
		return s != 0
	case uint64:
		return s != 0
	case float64:
		return s != 0
	case string:
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}
