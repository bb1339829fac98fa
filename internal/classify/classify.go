// Package classify decides how a member is rendered and whether it is
// interesting for a given report.
package classify

import (
	"strings"

	"smtdump/internal/inspect"
)

// Class is how a member is rendered.
type Class int

const (
	Leaf       Class = iota // printed inline
	Collection              // header plus capped element lines
	Nested                  // header, recursed into while depth remains
	Unreadable              // [err] line
)

func (c Class) String() string {
	switch c {
	case Leaf:
		return "leaf"
	case Collection:
		return "collection"
	case Nested:
		return "nested"
	case Unreadable:
		return "unreadable"
	}
	return "unknown"
}

// Classify combines a member's declared shape with the outcome of reading
// it. A declared leaf stays a leaf whatever the runtime value is; a null is
// a leaf too since there is nothing to descend into.
func Classify(m inspect.Member, v inspect.Value, err error) Class {
	if err != nil {
		return Unreadable
	}
	if m.Shape == inspect.Leaf || v == nil {
		return Leaf
	}
	switch v.Kind() {
	case inspect.Leaf, inspect.Null:
		return Leaf
	}
	if _, ok := v.(inspect.List); ok {
		return Collection
	}
	return Nested
}

// IsScalar reports whether an element is rendered as a plain "- value" line.
func IsScalar(v inspect.Value) bool {
	if v == nil {
		return true
	}
	k := v.Kind()
	return k == inspect.Leaf || k == inspect.Null
}

// IsIntegerArray reports whether m is declared as a collection of signed
// integers, the shape used for index tables.
func IsIntegerArray(m inspect.Member) bool {
	if m.Shape != inspect.Collection || m.Elem != inspect.Int {
		return false
	}
	switch strings.ToLower(m.ElemType) {
	case "int", "int8", "int16", "int32", "int64", "short":
		return true
	}
	return false
}

// IsBoolArray reports whether m is declared as a collection of booleans.
func IsBoolArray(m inspect.Member) bool {
	return m.Shape == inspect.Collection && m.Elem == inspect.Bool
}

// IsStringArray reports whether m is declared as a collection of strings.
func IsStringArray(m inspect.Member) bool {
	return m.Shape == inspect.Collection && m.Elem == inspect.String
}

// LooksEmployeeRelated reports whether s names something to do with staff.
func LooksEmployeeRelated(s string) bool {
	return s != "" && EmployeeKeys.Match(s)
}

// IsObjectArray reports whether m is declared as a collection of host
// objects (not scalars and not key/value pairs).
func IsObjectArray(m inspect.Member) bool {
	return m.Shape == inspect.Collection && m.Elem == inspect.Other &&
		m.ElemType != "" && m.ElemType != "KeyValuePair"
}
