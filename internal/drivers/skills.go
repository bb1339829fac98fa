package drivers

import (
	"strings"

	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/model"
	"smtdump/internal/report"
	"smtdump/internal/walker"
)

// Upgrade flag arrays listed first on the upgrades manager. Every other
// bool array follows them.
var upgradeFlagMembers = []string{
	"storeSpaceUpgrades",
	"storageSpaceUpgrades",
	"extraUpgrades",
	"NetworkstoreSpaceUpgrades",
	"NetworkstorageSpaceUpgrades",
	"NetworkextraUpgrades",
}

// skillSystems dumps every skill, upgrade or blackboard component. The
// upgrades manager also gets every bool and string array listed in full, by
// index, so flags can be mapped to names by hand.
func skillSystems(env Env, r *report.Report) {
	cfg := env.config()
	w := env.walker(r)

	found := inspect.FindComponents(env.Host, classify.SkillSystemTypeKeys.Match)
	r.Linef("Candidates: %d", len(found))
	for i, c := range found {
		if i >= cfg.Limits.CandidateComponents {
			r.Line(model.MarkerTruncated)
			break
		}
		if err := guard(func() {
			componentLine(r, c)
			w.Object(c.Value, walker.Budget{Depth: 1, Items: cfg.Limits.SkillItems}, classify.SkillMemberKeys)
			if strings.EqualFold(c.Value.TypeName(), cfg.Roots.UpgradesManager) {
				upgradeTables(r, c.Value, cfg.Limits.LimitArrayItems)
			}
		}); err != nil {
			r.Linef("  [err] %v", err)
		}
	}
}

// upgradeTables dumps the flag and name arrays without a cap. Object arrays
// are still capped at limit.
func upgradeTables(r *report.Report, v inspect.Value, limit int) {
	named := make(map[string]bool, len(upgradeFlagMembers))
	for _, name := range upgradeFlagMembers {
		if m, ok := inspect.Lookup(v, name); ok {
			named[m.Name] = true
			flagArray(r, m)
		}
	}
	all := members(v)
	for _, m := range all {
		if named[m.Name] || !classify.IsBoolArray(m) {
			continue
		}
		flagArray(r, m)
	}
	for _, m := range all {
		if !classify.IsStringArray(m) {
			continue
		}
		l, err := readList(m)
		if err != nil || l == nil {
			continue
		}
		r.Linef("  %s (string[] len=%d)", m.Name, l.Len())
		indexed(r, l, -1)
	}
	for _, m := range all {
		if !classify.IsObjectArray(m) {
			continue
		}
		l, err := readList(m)
		if err != nil || l == nil {
			continue
		}
		r.Linef("  %s (%s len=%d)", m.Name, m.Type, l.Len())
		objectArray(r, l, limit)
	}
}

func flagArray(r *report.Report, m inspect.Member) {
	v, err := m.Read()
	switch {
	case err != nil:
		r.Linef("  [err] %s: %v", m.Name, err)
		return
	case v.Kind() == inspect.Null:
		return
	}
	l, ok := v.(inspect.List)
	if !ok {
		r.Linef("  %s = %s", m.Name, v.String())
		return
	}
	if classify.IsBoolArray(m) {
		r.Linef("  %s (bool[] len=%d)", m.Name, l.Len())
	} else {
		r.Linef("  %s (enumerable)", m.Name)
		if l.Len() == 0 {
			r.Line("    " + model.MarkerEmpty)
			return
		}
	}
	indexed(r, l, -1)
}

// objectArray lists each element by name, with its label text when it has
// one.
func objectArray(r *report.Report, l inspect.List, limit int) {
	n := l.Len()
	for i := 0; i < n; i++ {
		if i >= limit {
			r.Line("    " + model.MarkerTruncated)
			return
		}
		e, err := l.Elem(i)
		switch {
		case err != nil:
			r.Linef("    [%d] = [err] %v", i, err)
			continue
		case e == nil || e.Kind() == inspect.Null:
			r.Linef("    [%d] = <null>", i)
			continue
		}
		name := e.String()
		if m, ok := memberFold(e, "name"); ok {
			name = show(m)
		}
		if m, ok := memberFold(e, "text", "label"); ok {
			if txt := show(m); txt != "" && txt != model.MarkerUnreadable && txt != "<null>" {
				r.Linef("    [%d] = %s | Text=%s", i, name, txt)
				continue
			}
		}
		r.Linef("    [%d] = %s", i, name)
	}
}
