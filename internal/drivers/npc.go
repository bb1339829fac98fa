package drivers

import (
	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/model"
	"smtdump/internal/report"
)

// Employee limits read straight off the NPC manager, when present.
var limitFields = []string{
	"maxEmployees",
	"minEmployees",
	"employeesCap",
	"maxEmployeesCap",
	"employeesLimit",
}

// npcManager dumps the numeric limits of the NPC manager, the fields that
// look related to staff or unlocks, and any integer arrays that could be
// achievement index tables.
func npcManager(env Env, r *report.Report) {
	cfg := env.config()
	c, ok := inspect.FirstComponent(env.Host, cfg.Roots.NPCManager)
	if !ok {
		r.Linef("%s not found in scene.", cfg.Roots.NPCManager)
		return
	}
	v := c.Value
	r.Linef("Type: %s", v.TypeName())

	for _, name := range limitFields {
		if m, ok := field(v, name); ok {
			r.Linef("  %s = %s", name, show(m))
		}
	}

	var fields []inspect.Member
	for _, m := range members(v) {
		if m.Kind == inspect.Field {
			fields = append(fields, m)
		}
	}

	for _, m := range fields {
		if !classify.LimitMemberKeys.Match(m.Name) {
			continue
		}
		if err := guard(func() { limitField(r, m, cfg.Limits.LimitArrayItems) }); err != nil {
			r.Linef("  [err] %s: %v", m.Name, err)
		}
	}

	r.Line("Heuristic: Achievement index-like fields")
	for _, m := range fields {
		if !classify.IsIntegerArray(m) || !classify.IndexLikeKeys.Match(m.Name) {
			continue
		}
		l, err := readList(m)
		if err != nil || l == nil {
			continue
		}
		r.Linef("  %s (int[] len=%d) sample:", m.Name, l.Len())
		indexed(r, l, cfg.Limits.IndexSample)
	}
}

func limitField(r *report.Report, m inspect.Member, limit int) {
	v, err := m.Read()
	if err != nil {
		r.Linef("  [err] %s: %v", m.Name, err)
		return
	}
	if v.Kind() == inspect.Null {
		r.Linef("  %s = <null>", m.Name)
		return
	}
	l, ok := v.(inspect.List)
	if !ok {
		r.Linef("  %s = %s", m.Name, v.String())
		return
	}

	if m.ElemType != "KeyValuePair" {
		r.Linef("  %s (array len=%d)", m.Name, l.Len())
		indexed(r, l, limit)
		return
	}
	r.Linef("  %s (enumerable)", m.Name)
	for i := 0; i < l.Len(); i++ {
		if i >= limit {
			r.Line("    " + model.MarkerTruncated)
			break
		}
		r.Linef("    - %s", elem(l, i))
	}
}
