package drivers

import (
	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/model"
	"smtdump/internal/report"
	"smtdump/internal/walker"
)

// achievements cross-references the achievement names with their unlock
// flags, then dumps the employee generation settings.
func achievements(env Env, r *report.Report) {
	cfg := env.config()

	if c, ok := inspect.FirstComponent(env.Host, cfg.Roots.Achievements); ok {
		componentLine(r, c)
		if err := guard(func() { achievementTable(r, c.Value, cfg.ToolTag) }); err != nil {
			r.Linef("  Achievements explicit dump failed: %v", err)
		}
	} else {
		r.Linef("%s not found.", cfg.Roots.Achievements)
	}

	if c, ok := inspect.FirstComponent(env.Host, cfg.Roots.Generation); ok {
		componentLine(r, c)
		b := walker.Budget{Depth: 2, Items: cfg.Limits.GenerationItems}
		env.walker(r).Object(c.Value, b, classify.GenerationMemberKeys)
	} else {
		r.Linef("%s not found.", cfg.Roots.Generation)
	}
}

func achievementTable(r *report.Report, v inspect.Value, tag string) {
	names, ok := stringsOf(v, "achievementStrings")
	if !ok {
		r.Line("  Could not read achievementStrings.")
		return
	}
	unlocked := boolsOf(v, "unlockedArray")
	r.Linef("Counts: names=%d, unlocked=%d", len(names), len(unlocked))

	flag := func(i int) bool { return i < len(unlocked) && unlocked[i] }

	r.Line("EMP-ACH (likely employee-related achievements)")
	for i, name := range names {
		if classify.LooksEmployeeRelated(name) {
			r.Linef("[%s] EMP-ACH: %d → %s [%t]", tag, i, name, flag(i))
		}
	}

	r.Line("Achievement Index → Name [Unlocked]")
	for i, name := range names {
		marker := ""
		if classify.LooksEmployeeRelated(name) {
			marker = " " + model.MarkerEmployee
		}
		r.Linef("  %d → %s [%t]%s", i, name, flag(i), marker)
	}
}

// stringsOf reads the named field as a list of display strings. Null and
// unreadable elements become empty strings.
func stringsOf(v inspect.Value, name string) ([]string, bool) {
	m, ok := field(v, name)
	if !ok {
		return nil, false
	}
	l, err := readList(m)
	if err != nil || l == nil {
		return nil, false
	}
	out := make([]string, l.Len())
	for i := range out {
		e, err := l.Elem(i)
		if err != nil || e == nil || e.Kind() == inspect.Null {
			continue
		}
		out[i] = e.String()
	}
	return out, true
}

// boolsOf reads the named field as a list of flags. A missing or unreadable
// list is empty; unreadable elements are false.
func boolsOf(v inspect.Value, name string) []bool {
	m, ok := field(v, name)
	if !ok {
		return nil
	}
	l, err := readList(m)
	if err != nil || l == nil {
		return nil
	}
	out := make([]bool, l.Len())
	for i := range out {
		if e, err := l.Elem(i); err == nil {
			out[i] = inspect.AsBool(e)
		}
	}
	return out
}
