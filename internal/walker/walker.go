// Package walker renders bounded dumps of object graphs and scene trees.
//
// Every walk is bounded twice: a Budget caps recursion depth and the number
// of members printed per object, and a Counter caps the number of scene
// nodes emitted across a whole tree. A failure while reading one member,
// visiting one node or descending into one child is written as an [err]
// line and the walk carries on with the next sibling.
package walker

import (
	"fmt"
	"strconv"
	"strings"

	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/model"
)

// DefaultCollectionCap is the most elements printed for one collection.
const DefaultCollectionCap = 25

// Lines receives rendered report lines in order.
type Lines interface {
	Line(s string)
}

// Budget bounds an object walk. It is passed by value so each branch gets
// its own copy.
type Budget struct {
	Depth int // nested levels still allowed below this object
	Items int // members that may still be printed
}

// Counter caps the number of nodes emitted across one scene walk. A Counter
// belongs to a single walk and is not safe for concurrent use.
type Counter struct {
	n   int
	max int
}

func NewCounter(max int) *Counter { return &Counter{max: max} }

// Spent reports whether the ceiling has been reached.
func (c *Counter) Spent() bool { return c.n >= c.max }

func (c *Counter) Inc() { c.n++ }

func (c *Counter) Count() int { return c.n }

// Walker writes dumps to Report.
type Walker struct {
	Report        Lines
	CollectionCap int
	// Summary picks the sub-members shown for non-scalar collection elements.
	Summary classify.Filter
}

// New returns a walker with the default collection cap and element summary
// keys.
func New(out Lines) *Walker {
	return &Walker{
		Report:        out,
		CollectionCap: DefaultCollectionCap,
		Summary:       classify.ElementSummaryKeys,
	}
}

func (w *Walker) line(s string) { w.Report.Line(s) }

func (w *Walker) linef(format string, args ...any) {
	w.Report.Line(fmt.Sprintf(format, args...))
}

// guard runs fn and turns a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

func indent(level int) string { return strings.Repeat("  ", level+1) }

// Object dumps v: a "Type:" header, then its members (fields before
// properties) that pass f, one line each, until b.Items members have been
// printed. Nested members are descended into while b.Depth > 0.
func (w *Walker) Object(v inspect.Value, b Budget, f classify.Filter) {
	w.object(v, b, f, 0)
}

func (w *Walker) object(v inspect.Value, b Budget, f classify.Filter, level int) {
	if v == nil || v.Kind() == inspect.Null {
		return
	}
	ind := indent(level)
	w.linef("%sType: %s", ind, v.TypeName())

	obj, ok := v.(inspect.Object)
	if !ok {
		return
	}
	var members []inspect.Member
	if err := guard(func() { members = inspect.Ordered(obj.Members()) }); err != nil {
		w.linef("%s[err] members: %v", ind, err)
		return
	}

	printed := 0
	for _, m := range members {
		if printed >= b.Items {
			break
		}
		if !f.Match(m.Name) {
			continue
		}
		left := b.Items - printed
		printed++
		if err := guard(func() { w.member(m, b.Depth, left, b.Items-printed, f, level) }); err != nil {
			w.linef("%s[err] %s: %v", ind, m.Name, err)
		}
	}
}

// member renders one member. left is the item budget when the member was
// reached and rest what remains after it.
func (w *Walker) member(m inspect.Member, depth, left, rest int, f classify.Filter, level int) {
	ind := indent(level)
	v, err := m.Read()
	typ := m.Type
	if typ == "" && v != nil {
		typ = v.TypeName()
	}

	switch classify.Classify(m, v, err) {
	case classify.Unreadable:
		w.linef("%s[err] %s: %v", ind, m.Name, err)

	case classify.Leaf:
		w.linef("%s%s %s (%s) = %s", ind, m.Kind, m.Name, typ, render(v))

	case classify.Collection:
		w.linef("%s%s %s (%s) → enumerable", ind, m.Kind, m.Name, typ)
		limit := w.CollectionCap
		if left < limit {
			limit = left
		}
		w.elements(v.(inspect.List), limit, ind+"  ")

	case classify.Nested:
		w.linef("%s%s %s (%s) → object", ind, m.Kind, m.Name, typ)
		if depth > 0 {
			w.object(v, Budget{Depth: depth - 1, Items: rest}, f, level+1)
		}
	}
}

func (w *Walker) elements(l inspect.List, limit int, ind string) {
	n := l.Len()
	for i := 0; i < n; i++ {
		if i >= limit {
			w.line(ind + model.MarkerTruncated)
			return
		}
		var (
			e   inspect.Value
			err error
		)
		if perr := guard(func() { e, err = l.Elem(i) }); perr != nil {
			err = perr
		}
		switch {
		case err != nil:
			w.linef("%s- [err] %v", ind, err)
		case classify.IsScalar(e):
			w.linef("%s- %s", ind, render(e))
		default:
			w.linef("%s- %s:%s", ind, e.TypeName(), w.summary(e))
		}
	}
}

// summary renders the interesting sub-members of a collection element as
// " name=value;" pairs.
func (w *Walker) summary(e inspect.Value) string {
	obj, ok := e.(inspect.Object)
	if !ok {
		return " " + e.String()
	}
	var sb strings.Builder
	for _, m := range inspect.Ordered(obj.Members()) {
		if !w.Summary.Match(m.Name) {
			continue
		}
		v, err := m.Read()
		val := model.MarkerUnreadable
		if err == nil {
			val = render(v)
		}
		fmt.Fprintf(&sb, " %s=%s;", m.Name, val)
	}
	return sb.String()
}

func render(v inspect.Value) string {
	if v == nil {
		return "<null>"
	}
	return v.String()
}

// Scene scans the subtree at n. Every node whose name passes f gets a
// "Node: <path>" header, counts against c, and is handed to visit for
// details. Children are always descended with the same counter; the scan
// stops once c is spent. Paths are relative to n.
func (w *Walker) Scene(n inspect.Node, f classify.Filter, c *Counter, visit func(inspect.Node)) {
	w.scene(n, "", f, c, visit)
}

func (w *Walker) scene(n inspect.Node, prefix string, f classify.Filter, c *Counter, visit func(inspect.Node)) {
	if n == nil || c.Spent() {
		return
	}
	path := n.Name()
	if prefix != "" {
		path = prefix + "/" + path
	}

	if f.Match(n.Name()) {
		c.Inc()
		w.line("Node: " + path)
		if visit != nil {
			if err := guard(func() { visit(n) }); err != nil {
				w.linef("  [err] %s: %v", path, err)
			}
		}
	}

	var children []inspect.Node
	if err := guard(func() { children = n.Children() }); err != nil {
		w.linef("  [err] %s: %v", path, err)
		return
	}
	for _, child := range children {
		if c.Spent() {
			return
		}
		if err := guard(func() { w.scene(child, path, f, c, visit) }); err != nil {
			w.linef("  [err] %s: %v", path, err)
		}
	}
}

// Hierarchy renders the UI tree at n, one line per node, indented two
// spaces per level, down to maxDepth levels below n and at most c's ceiling
// nodes in total.
func (w *Walker) Hierarchy(n inspect.Node, maxDepth int, c *Counter) {
	w.hierarchy(n, 0, maxDepth, c)
}

func (w *Walker) hierarchy(n inspect.Node, depth, maxDepth int, c *Counter) {
	if n == nil || c.Spent() || depth > maxDepth {
		return
	}
	c.Inc()
	pad := strings.Repeat("  ", depth)
	if err := guard(func() { w.line(pad + uiLine(n)) }); err != nil {
		w.linef("%s- [err] %s: %v", pad, n.Name(), err)
	}

	var children []inspect.Node
	if err := guard(func() { children = n.Children() }); err != nil {
		w.linef("%s  [err] %s: %v", pad, n.Name(), err)
		return
	}
	for _, child := range children {
		if err := guard(func() { w.hierarchy(child, depth+1, maxDepth, c) }); err != nil {
			w.linef("%s  [err] %s: %v", pad, n.Name(), err)
		}
	}
}

func uiLine(n inspect.Node) string {
	var sb strings.Builder
	sb.WriteString("- ")
	sb.WriteString(n.Name())
	if in, ok := n.(inspect.Interactive); ok && in.Interactive() {
		sb.WriteString(" [Button]")
	}
	if txt := inspect.FirstText(n); txt != "" {
		fmt.Fprintf(&sb, " text=%q", txt)
	}
	if lo, ok := n.(inspect.Laidout); ok {
		if r, ok := lo.Geometry(); ok {
			fmt.Fprintf(&sb, " rect=(%sx%s) pos=(%s,%s)", num(r.Width), num(r.Height), num(r.X), num(r.Y))
		}
	}
	return sb.String()
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
