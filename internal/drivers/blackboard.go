package drivers

import (
	"strings"

	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/report"
	"smtdump/internal/walker"
)

// blackboard scans the manager blackboard subtree for skill, achievement,
// employee and upgrade nodes, then lists the unlock flags of every
// achievement/skill/employee component in the scene.
func blackboard(env Env, r *report.Report) {
	cfg := env.config()
	tag := cfg.ToolTag

	if root, ok := inspect.FirstComponent(env.Host, cfg.Roots.Blackboard); ok {
		c := walker.NewCounter(cfg.Limits.SceneNodes)
		env.walker(r).Scene(root.Node, classify.SceneInterestKeys, c, func(n inspect.Node) {
			describeNode(r, n, cfg.Roots.Interactable)
		})
	} else {
		r.Linef("%s not found in scene.", cfg.Roots.Blackboard)
	}

	found := inspect.FindComponents(env.Host, classify.CandidateTypeKeys.Match)
	if len(found) > cfg.Limits.CandidateComponents {
		found = found[:cfg.Limits.CandidateComponents]
	}
	r.Linef("[%s] Candidate achievement/skill components found: %d", tag, len(found))
	for _, c := range found {
		if err := guard(func() {
			componentLine(r, c)
			unlockFlags(r, c.Value)
		}); err != nil {
			r.Linef("  [err] %v", err)
		}
	}
}

// describeNode lists the labels under n and the index/name pair of its
// interactable component.
func describeNode(r *report.Report, n inspect.Node, interactable string) {
	for _, text := range inspect.Labels(n) {
		r.Linef("  TMP: %s", text)
	}
	for _, comp := range n.Components() {
		if comp == nil || !strings.EqualFold(comp.TypeName(), interactable) {
			continue
		}
		for _, name := range []string{"thisSkillIndex", "thisName"} {
			if m, ok := field(comp, name); ok {
				r.Linef("  %s.%s = %s", interactable, name, show(m))
			}
		}
	}
}

// unlockFlags lists boolean members whose name mentions unlocking.
func unlockFlags(r *report.Report, v inspect.Value) {
	for _, m := range members(v) {
		if m.Basic != inspect.Bool || !classify.UnlockKeys.Match(m.Name) {
			continue
		}
		r.Linef("  %s %s = %s", strings.TrimSpace(string(m.Kind)), m.Name, show(m))
	}
}
