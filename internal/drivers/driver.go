// Package drivers holds the fixed reports. Each driver locates its roots in
// the host scene, walks them with its own budgets and filters, and returns
// the assembled report; emission is left to the Runner.
package drivers

import (
	"fmt"
	"strings"
	"time"

	"smtdump/internal/config"
	"smtdump/internal/inspect"
	"smtdump/internal/model"
	"smtdump/internal/report"
	"smtdump/internal/walker"
)

// Env is everything a driver reads.
type Env struct {
	Host   inspect.Host
	Config *config.Config
	Now    time.Time
}

func (e Env) config() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

func (e Env) walker(r *report.Report) *walker.Walker {
	w := walker.New(r)
	w.CollectionCap = e.config().Limits.CollectionItems
	return w
}

// Driver is one fixed report.
type Driver struct {
	Name  string
	Title string
	build func(env Env, r *report.Report)
}

// Generate builds the report. It never fails: a panic escaping the driver
// body is written as a final [err] line.
func (d Driver) Generate(env Env) *report.Report {
	cfg := env.config()
	r := report.New(cfg.ToolTag, d.Title, env.now())
	if err := guard(func() { d.build(env, r) }); err != nil {
		r.Linef("[err] %s: %v", d.Name, err)
	}
	return r
}

// Key returns the console key bound to d.
func (d Driver) Key(keys config.KeysConfig) string {
	switch d.Name {
	case "blackboard":
		return keys.Blackboard
	case "achievements":
		return keys.Achievements
	case "npc":
		return keys.NPC
	case "skills":
		return keys.Skills
	case "ui":
		return keys.UI
	}
	return ""
}

var registry = []Driver{
	{Name: "blackboard", Title: "ManagerBlackboard Dump (skills/achievements scan)", build: blackboard},
	{Name: "achievements", Title: "Achievements/Employees Dump", build: achievements},
	{Name: "npc", Title: "NPC_Manager Dump", build: npcManager},
	{Name: "skills", Title: "Skill/Upgrade Systems Dump", build: skillSystems},
	{Name: "ui", Title: "Buttons_Bar Dump", build: buttonsBar},
}

// All returns the drivers in registry order.
func All() []Driver {
	return append([]Driver(nil), registry...)
}

// Lookup finds a driver by name.
func Lookup(name string) (Driver, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Driver{}, false
}

// Names lists the driver names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name
	}
	return names
}

// ---------------------------------------------------------------------------
// Helpers shared by the drivers
// ---------------------------------------------------------------------------

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

func componentLine(r *report.Report, c inspect.Component) {
	r.Linef("Component: %s on %s", c.Value.TypeName(), inspect.Path(c.Node))
}

// show reads m for an inline "name = value" line. Failed reads show as
// <err>.
func show(m inspect.Member) string {
	v, err := m.Read()
	if err != nil {
		return model.MarkerUnreadable
	}
	return v.String()
}

// field finds a field (never a property) by exact name.
func field(v inspect.Value, name string) (inspect.Member, bool) {
	for _, m := range members(v) {
		if m.Kind == inspect.Field && m.Name == name {
			return m, true
		}
	}
	return inspect.Member{}, false
}

// members returns v's members, fields first, or nil for non-objects.
func members(v inspect.Value) []inspect.Member {
	obj, ok := v.(inspect.Object)
	if !ok {
		return nil
	}
	return inspect.Ordered(obj.Members())
}

// memberFold finds the first member whose name equals one of names,
// ignoring case.
func memberFold(v inspect.Value, names ...string) (inspect.Member, bool) {
	for _, m := range members(v) {
		for _, n := range names {
			if strings.EqualFold(m.Name, n) {
				return m, true
			}
		}
	}
	return inspect.Member{}, false
}

// readList reads m as a collection.
func readList(m inspect.Member) (inspect.List, error) {
	v, err := m.Read()
	if err != nil {
		return nil, err
	}
	l, ok := v.(inspect.List)
	if !ok {
		return nil, nil
	}
	return l, nil
}

// elem renders element i for an "[i] = value" line.
func elem(l inspect.List, i int) string {
	var (
		v   inspect.Value
		err error
	)
	if perr := guard(func() { v, err = l.Elem(i) }); perr != nil {
		err = perr
	}
	switch {
	case err != nil:
		return "[err] " + err.Error()
	case v == nil:
		return "<null>"
	}
	return v.String()
}

// indexed writes "[i] = value" lines for the first limit elements of l,
// then a truncation marker if elements were left out. A negative limit
// writes every element.
func indexed(r *report.Report, l inspect.List, limit int) {
	n := l.Len()
	shown := n
	if limit >= 0 && limit < n {
		shown = limit
	}
	for i := 0; i < shown; i++ {
		r.Linef("    [%d] = %s", i, elem(l, i))
	}
	if shown < n {
		r.Line("    " + model.MarkerTruncated)
	}
}
