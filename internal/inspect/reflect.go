package inspect

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"unicode"

	"google.golang.org/protobuf/proto"
)

// ReflectOption tunes the reflect binding.
type ReflectOption func(*reflectBinding)

// WithoutProperties stops the reflect binding from exposing niladic methods
// as properties. Use it for host types whose methods are not pure getters.
func WithoutProperties() ReflectOption {
	return func(b *reflectBinding) { b.properties = false }
}

// WithPropertyNames exposes only the named methods as properties. The
// caller vouches that they do not change state, so verb-led names are
// allowed. Methods returning only an error are still never called.
func WithPropertyNames(names ...string) ReflectOption {
	return func(b *reflectBinding) {
		b.allow = make(map[string]bool, len(names))
		for _, n := range names {
			b.allow[n] = true
		}
	}
}

type reflectBinding struct {
	properties bool
	allow      map[string]bool // nil: any getter-shaped method
}

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// Methods that are never reported as properties.
var skippedMethods = map[string]bool{
	"String":       true,
	"GoString":     true,
	"Error":        true,
	"ProtoReflect": true,
}

// Leading words of method names that change state. A method whose first
// word is one of these is never called as a property.
var mutatingVerbs = map[string]bool{}

func init() {
	for _, v := range []string{
		"Acquire", "Activate", "Add", "Advance", "Append", "Apply", "Assign",
		"Attach", "Award", "Build", "Buy", "Call", "Cancel", "Cheat", "Clear",
		"Close", "Commit", "Complete", "Connect", "Consume", "Create",
		"Deactivate", "Decrement", "Delete", "Destroy", "Detach", "Disable",
		"Disconnect", "Dispatch", "Dispose", "Do", "Drop", "Emit", "Enable",
		"Erase", "Execute", "Finish", "Fire", "Flush", "Force", "Free",
		"Generate", "Give", "Grant", "Hide", "Hire", "Import", "Export",
		"Increment", "Init", "Initialize", "Insert", "Invoke", "Kill", "Load",
		"Lock", "Mark", "Migrate", "Move", "Next", "Notify", "Open", "Pause",
		"Pay", "Play", "Pop", "Process", "Purchase", "Push", "Put", "Randomize",
		"Rebuild", "Recalculate", "Recompute", "Refresh", "Register", "Release",
		"Reload", "Remove", "Reset", "Restore", "Resume", "Revoke", "Rollback",
		"Run", "Save", "Sell", "Send", "Set", "Show", "Shuffle", "Shutdown",
		"Sleep", "Sort", "Spawn", "Spend", "Start", "Step", "Stop", "Store",
		"Subscribe", "Swap", "Sync", "Tick", "Toggle", "Trigger", "Unlock",
		"Unregister", "Unsubscribe", "Update", "Upgrade", "Use", "Wait", "Wipe",
		"Write",
	} {
		mutatingVerbs[v] = true
	}
}

// firstWord returns the leading camel-case word of a method name:
// "UnlockAll" → "Unlock", "Unlocked" → "Unlocked", "IsOpen" → "Is".
func firstWord(name string) string {
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			return name[:i]
		}
	}
	return name
}

// isProperty reports whether a method may be called to read a value. It must
// take no arguments, return T or (T, error) with T not an error, and either
// be allowlisted or have a name that does not lead with a mutating verb.
func (b *reflectBinding) isProperty(name string, ft reflect.Type) bool {
	if skippedMethods[name] || ft.NumIn() != 0 {
		return false
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return false
	}
	if ft.Out(0) == errorType {
		return false
	}
	if b.allow != nil {
		return b.allow[name]
	}
	return !mutatingVerbs[firstWord(name)]
}

// Of binds any Go value: values that already implement Value pass through,
// protobuf messages use the protoreflect binding, everything else is seen
// through reflection.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue("nil")
	case Value:
		return t
	case proto.Message:
		return Proto(t)
	}
	return Reflect(v)
}

// Reflect binds a Go value through package reflect. Struct fields, exported
// or not, become Field members in declaration order. Exported niladic
// methods returning T or (T, error) become Property members in method-set
// order, unless T is error or the name leads with a mutating verb
// ("ResetCash", "UnlockAll", "Close"); the binding never calls those.
func Reflect(v any, opts ...ReflectOption) Value {
	b := &reflectBinding{properties: true}
	for _, o := range opts {
		o(b)
	}
	if rv, ok := v.(reflect.Value); ok {
		return b.wrap(rv)
	}
	return b.wrap(reflect.ValueOf(v))
}

func (b *reflectBinding) wrap(rv reflect.Value) Value {
	if !rv.IsValid() {
		return NullValue("nil")
	}
	if rv.CanInterface() && !isNilRef(rv) {
		switch x := rv.Interface().(type) {
		case Value:
			return x
		case proto.Message:
			return Proto(x)
		}
	}

	declared := shortTypeName(rv.Type())
	var methods reflect.Value
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return NullValue(declared)
		}
		if rv.Kind() == reflect.Pointer {
			methods = rv
		} else {
			methods = reflect.Value{}
		}
		rv = rv.Elem()
	}
	if !methods.IsValid() {
		methods = rv
		if rv.CanAddr() {
			methods = rv.Addr()
		}
	}

	switch kindOf(rv.Type()) {
	case Leaf:
		return reflectLeaf{rv: rv}
	case Collection:
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.IsNil() {
			return NullValue(shortTypeName(rv.Type()))
		}
		return newReflectList(b, rv)
	default:
		return reflectObject{b: b, rv: rv, methods: methods}
	}
}

func isNilRef(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return Leaf
	case reflect.Slice, reflect.Array, reflect.Map:
		return Collection
	case reflect.Pointer:
		return kindOf(t.Elem())
	default:
		return Nested
	}
}

func basicOf(t reflect.Type) Basic {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t.Implements(stringerType) {
			return Enum
		}
		return Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if t.Implements(stringerType) {
			return Enum
		}
		return Uint
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	default:
		return Other
	}
}

func shortTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	switch t.Kind() {
	case reflect.Slice:
		return "[]" + shortTypeName(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), shortTypeName(t.Elem()))
	case reflect.Map:
		return "map[" + shortTypeName(t.Key()) + "]" + shortTypeName(t.Elem())
	}
	return t.String()
}

func elemOf(t reflect.Type) (Basic, string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return basicOf(t.Elem()), shortTypeName(t.Elem())
	case reflect.Map:
		return Other, "KeyValuePair"
	}
	return Other, ""
}

// ---------------------------------------------------------------------------
// Leaves
// ---------------------------------------------------------------------------

type reflectLeaf struct {
	rv reflect.Value
}

func (l reflectLeaf) Kind() Kind       { return Leaf }
func (l reflectLeaf) TypeName() string { return shortTypeName(l.rv.Type()) }

func (l reflectLeaf) String() string {
	rv := l.rv
	if basicOf(rv.Type()) == Enum && rv.CanInterface() {
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(rv.Complex())
	case reflect.String:
		return rv.String()
	default:
		return "<" + l.TypeName() + ">"
	}
}

func (l reflectLeaf) Scalar() any {
	rv := l.rv
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

type reflectObject struct {
	b       *reflectBinding
	rv      reflect.Value
	methods reflect.Value
}

func (o reflectObject) Kind() Kind       { return Nested }
func (o reflectObject) TypeName() string { return shortTypeName(o.rv.Type()) }
func (o reflectObject) String() string   { return o.rv.Type().String() }
func (o reflectObject) Scalar() any      { return nil }

func (o reflectObject) Members() []Member {
	var members []Member
	if o.rv.Kind() == reflect.Struct {
		t := o.rv.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			fv := o.rv.Field(i)
			elem, elemType := elemOf(sf.Type)
			members = append(members, Member{
				Name:     sf.Name,
				Kind:     Field,
				Type:     shortTypeName(sf.Type),
				Shape:    kindOf(sf.Type),
				Basic:    basicOf(sf.Type),
				Elem:     elem,
				ElemType: elemType,
				get:      func() (Value, error) { return o.b.wrap(fv), nil },
			})
		}
	}
	if !o.b.properties || !o.methods.IsValid() || !o.methods.CanInterface() {
		return members
	}
	mt := o.methods.Type()
	for i := 0; i < mt.NumMethod(); i++ {
		method := mt.Method(i)
		fn := o.methods.Method(i)
		ft := fn.Type()
		if !o.b.isProperty(method.Name, ft) {
			continue
		}
		out := ft.Out(0)
		elem, elemType := elemOf(out)
		members = append(members, Member{
			Name:     method.Name,
			Kind:     Property,
			Type:     shortTypeName(out),
			Shape:    kindOf(out),
			Basic:    basicOf(out),
			Elem:     elem,
			ElemType: elemType,
			get: func() (Value, error) {
				res := fn.Call(nil)
				if len(res) == 2 && !res[1].IsNil() {
					return nil, res[1].Interface().(error)
				}
				return o.b.wrap(res[0]), nil
			},
		})
	}
	return members
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

type reflectList struct {
	b    *reflectBinding
	rv   reflect.Value
	keys []reflect.Value
}

func newReflectList(b *reflectBinding, rv reflect.Value) reflectList {
	l := reflectList{b: b, rv: rv}
	if rv.Kind() == reflect.Map {
		l.keys = rv.MapKeys()
		sort.Slice(l.keys, func(i, j int) bool {
			return fmt.Sprint(l.keys[i]) < fmt.Sprint(l.keys[j])
		})
	}
	return l
}

func (l reflectList) Kind() Kind       { return Collection }
func (l reflectList) TypeName() string { return shortTypeName(l.rv.Type()) }
func (l reflectList) String() string   { return fmt.Sprintf("%s len=%d", l.TypeName(), l.Len()) }
func (l reflectList) Scalar() any      { return nil }

func (l reflectList) Len() int {
	if l.rv.Kind() == reflect.Map {
		return len(l.keys)
	}
	return l.rv.Len()
}

func (l reflectList) Elem(i int) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%v", r)
		}
	}()
	if i < 0 || i >= l.Len() {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, l.Len())
	}
	if l.rv.Kind() == reflect.Map {
		k := l.keys[i]
		return entry{
			typ:   "KeyValuePair",
			key:   l.b.wrap(k),
			value: l.b.wrap(l.rv.MapIndex(k)),
		}, nil
	}
	return l.b.wrap(l.rv.Index(i)), nil
}

// entry is one key/value pair of a map-shaped collection.
type entry struct {
	typ   string
	key   Value
	value Value
}

func (e entry) Kind() Kind       { return Nested }
func (e entry) TypeName() string { return e.typ }
func (e entry) String() string   { return "[" + e.key.String() + ", " + e.value.String() + "]" }
func (e entry) Scalar() any      { return nil }

func (e entry) Members() []Member {
	return []Member{
		{Name: "Key", Kind: Property, Type: e.key.TypeName(), Shape: e.key.Kind(), get: func() (Value, error) { return e.key, nil }},
		{Name: "Value", Kind: Property, Type: e.value.TypeName(), Shape: e.value.Kind(), get: func() (Value, error) { return e.value, nil }},
	}
}
