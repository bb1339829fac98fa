package inspect

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Proto binds a protobuf message through protoreflect. Fields appear in
// descriptor order; repeated and map fields are lists; unset message fields
// and unset fields with explicit presence are null.
func Proto(m proto.Message) Value {
	if m == nil {
		return NullValue("Message")
	}
	pm := m.ProtoReflect()
	if !pm.IsValid() {
		return NullValue(string(pm.Descriptor().Name()))
	}
	return protoMessage{m: pm}
}

type protoMessage struct {
	m protoreflect.Message
}

func (p protoMessage) Kind() Kind       { return Nested }
func (p protoMessage) TypeName() string { return string(p.m.Descriptor().Name()) }
func (p protoMessage) String() string   { return string(p.m.Descriptor().FullName()) }
func (p protoMessage) Scalar() any      { return nil }

func (p protoMessage) Members() []Member {
	fields := p.m.Descriptor().Fields()
	members := make([]Member, 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		m := Member{
			Name:  string(fd.Name()),
			Kind:  Field,
			Type:  protoFieldType(fd),
			Shape: protoShape(fd),
			get:   func() (Value, error) { return protoField(p.m, fd), nil },
		}
		switch {
		case fd.IsMap():
			m.Elem, m.ElemType = Other, "KeyValuePair"
		case fd.IsList():
			m.Elem, m.ElemType = protoBasic(fd), protoKindName(fd)
		default:
			m.Basic = protoBasic(fd)
		}
		members = append(members, m)
	}
	return members
}

func protoShape(fd protoreflect.FieldDescriptor) Kind {
	switch {
	case fd.IsList(), fd.IsMap():
		return Collection
	case fd.Kind() == protoreflect.MessageKind, fd.Kind() == protoreflect.GroupKind:
		return Nested
	default:
		return Leaf
	}
}

func protoKindName(fd protoreflect.FieldDescriptor) string {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(fd.Message().Name())
	case protoreflect.EnumKind:
		return string(fd.Enum().Name())
	default:
		return fd.Kind().String()
	}
}

func protoFieldType(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.IsMap():
		return fmt.Sprintf("map<%s,%s>", protoKindName(fd.MapKey()), protoKindName(fd.MapValue()))
	case fd.IsList():
		return protoKindName(fd) + "[]"
	default:
		return protoKindName(fd)
	}
}

func protoBasic(fd protoreflect.FieldDescriptor) Basic {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return Bool
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return Int
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind, protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return Uint
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return Float
	case protoreflect.StringKind:
		return String
	case protoreflect.EnumKind:
		return Enum
	default:
		return Other
	}
}

func protoField(m protoreflect.Message, fd protoreflect.FieldDescriptor) Value {
	switch {
	case fd.IsMap():
		return newProtoMap(fd, m.Get(fd).Map())
	case fd.IsList():
		return protoList{fd: fd, list: m.Get(fd).List()}
	case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
		if !m.Has(fd) {
			return NullValue(protoKindName(fd))
		}
		return protoMessage{m: m.Get(fd).Message()}
	default:
		if fd.HasPresence() && !m.Has(fd) {
			return NullValue(protoKindName(fd))
		}
		return protoScalar{fd: fd, v: m.Get(fd)}
	}
}

func protoElem(fd protoreflect.FieldDescriptor, v protoreflect.Value) Value {
	if fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind {
		return protoMessage{m: v.Message()}
	}
	return protoScalar{fd: fd, v: v}
}

type protoScalar struct {
	fd protoreflect.FieldDescriptor
	v  protoreflect.Value
}

func (s protoScalar) Kind() Kind       { return Leaf }
func (s protoScalar) TypeName() string { return protoKindName(s.fd) }

func (s protoScalar) String() string {
	switch s.fd.Kind() {
	case protoreflect.EnumKind:
		if ev := s.fd.Enum().Values().ByNumber(s.v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return fmt.Sprint(int32(s.v.Enum()))
	case protoreflect.BytesKind:
		return fmt.Sprintf("%x", s.v.Bytes())
	case protoreflect.StringKind:
		return s.v.String()
	default:
		return fmt.Sprint(s.v.Interface())
	}
}

func (s protoScalar) Scalar() any {
	switch protoBasic(s.fd) {
	case Bool:
		return s.v.Bool()
	case Int:
		return s.v.Int()
	case Uint:
		return s.v.Uint()
	case Float:
		return s.v.Float()
	case String:
		return s.v.String()
	case Enum:
		return int64(s.v.Enum())
	}
	return nil
}

type protoList struct {
	fd   protoreflect.FieldDescriptor
	list protoreflect.List
}

func (l protoList) Kind() Kind       { return Collection }
func (l protoList) TypeName() string { return protoFieldType(l.fd) }
func (l protoList) String() string   { return fmt.Sprintf("%s len=%d", l.TypeName(), l.Len()) }
func (l protoList) Scalar() any      { return nil }
func (l protoList) Len() int         { return l.list.Len() }

func (l protoList) Elem(i int) (Value, error) {
	if i < 0 || i >= l.list.Len() {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, l.list.Len())
	}
	return protoElem(l.fd, l.list.Get(i)), nil
}

type protoMap struct {
	fd   protoreflect.FieldDescriptor
	m    protoreflect.Map
	keys []protoreflect.MapKey
}

func newProtoMap(fd protoreflect.FieldDescriptor, m protoreflect.Map) protoMap {
	pm := protoMap{fd: fd, m: m}
	m.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		pm.keys = append(pm.keys, k)
		return true
	})
	sort.Slice(pm.keys, func(i, j int) bool {
		return pm.keys[i].String() < pm.keys[j].String()
	})
	return pm
}

func (p protoMap) Kind() Kind       { return Collection }
func (p protoMap) TypeName() string { return protoFieldType(p.fd) }
func (p protoMap) String() string   { return fmt.Sprintf("%s len=%d", p.TypeName(), p.Len()) }
func (p protoMap) Scalar() any      { return nil }
func (p protoMap) Len() int         { return len(p.keys) }

func (p protoMap) Elem(i int) (Value, error) {
	if i < 0 || i >= len(p.keys) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(p.keys))
	}
	k := p.keys[i]
	return entry{
		typ:   "KeyValuePair",
		key:   protoScalar{fd: p.fd.MapKey(), v: k.Value()},
		value: protoElem(p.fd.MapValue(), p.m.Get(k)),
	}, nil
}
