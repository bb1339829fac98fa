package drivers

import (
	"strings"

	"smtdump/internal/classify"
	"smtdump/internal/inspect"
	"smtdump/internal/report"
	"smtdump/internal/walker"
)

// buttonsBar renders the manager button bar as a UI tree.
func buttonsBar(env Env, r *report.Report) {
	cfg := env.config()
	root := findUIRoot(env.Host, cfg.Roots.ButtonsBar)
	if root == nil {
		r.Linef("%s not found. Please open the manager UI before dumping.", cfg.Roots.ButtonsBar)
		return
	}
	r.Linef("Root: %s", inspect.Path(root))
	env.walker(r).Hierarchy(root, cfg.Limits.UIDepth, walker.NewCounter(cfg.Limits.UINodes))
}

// findUIRoot tries an exact match among active nodes, then a
// case-insensitive match over every node, then any node whose name holds
// all of the root keywords.
func findUIRoot(h inspect.Host, name string) inspect.Node {
	if n := inspect.FindByName(h, name); n != nil {
		return n
	}
	if ns := inspect.FindNodes(h, func(n inspect.Node) bool { return strings.EqualFold(n.Name(), name) }); len(ns) > 0 {
		return ns[0]
	}
	if ns := inspect.FindNodes(h, func(n inspect.Node) bool { return classify.UIRootKeywords.MatchAll(n.Name()) }); len(ns) > 0 {
		return ns[0]
	}
	return nil
}
