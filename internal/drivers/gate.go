package drivers

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smtdump/internal/classify"
	"smtdump/internal/config"
	"smtdump/internal/inspect"
)

// Names of extra upgrades that concern staff.
var extraKeys = classify.NewFilter("employee", "employees", "npc", "staff", "hire")

// Gate answers whether the employee-related extra upgrades are unlocked.
// Answers are cached for TTL; the check itself only reads the host.
type Gate struct {
	Roots         config.RootsConfig
	BaseEmployees int
	TTL           time.Duration
	Logger        *zap.Logger
	Now           func() time.Time

	mu      sync.Mutex
	cached  bool
	valid   bool
	checked time.Time
}

func NewGate(cfg *config.Config, logger *zap.Logger) *Gate {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		Roots:         cfg.Roots,
		BaseEmployees: cfg.Gate.BaseEmployees,
		TTL:           cfg.GetGateTTL(),
		Logger:        logger,
		Now:           time.Now,
	}
}

// EmployeeExtrasUnlocked reports whether every extra upgrade whose name
// mentions staff is unlocked. When no names can be matched to the upgrade
// flags, it falls back to the NPC manager's employee limit being above the
// base count. A failed check reads as false.
func (g *Gate) EmployeeExtrasUnlocked(h inspect.Host) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Now()
	if g.valid && now.Sub(g.checked) < g.TTL {
		return g.cached
	}

	var (
		result bool
		err    error
	)
	if perr := guard(func() { result, err = g.check(h) }); perr != nil {
		err = perr
	}
	if err != nil {
		g.Logger.Warn("employee extras check failed", zap.Error(err))
		result = false
	}
	g.cached, g.valid, g.checked = result, true, now
	return result
}

// Invalidate drops the cached answer.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.valid = false
	g.mu.Unlock()
}

func (g *Gate) check(h inspect.Host) (bool, error) {
	um, ok := inspect.FirstComponent(h, g.Roots.UpgradesManager)
	if !ok {
		return false, nil
	}

	extra := flags(um.Value, "NetworkextraUpgrades")
	if extra == nil {
		extra = flags(um.Value, "extraUpgrades")
	}
	if len(extra) == 0 {
		return false, nil
	}

	indices, err := staffIndices(um.Value, len(extra))
	if err != nil {
		return false, err
	}

	if len(indices) == 0 {
		npc, ok := inspect.FirstComponent(h, g.Roots.NPCManager)
		if !ok {
			return false, nil
		}
		m, ok := field(npc.Value, "maxEmployees")
		if !ok {
			return false, nil
		}
		v, err := m.Read()
		if err != nil {
			return false, fmt.Errorf("read maxEmployees: %w", err)
		}
		return exceeds(v.Scalar(), g.BaseEmployees), nil
	}

	for _, i := range indices {
		if !extra[i] {
			return false, nil
		}
	}
	return true, nil
}

// exceeds reports whether the numeric scalar n is above base. Hosts store
// employee caps as any integer or float kind.
func exceeds(n any, base int) bool {
	switch x := n.(type) {
	case int64:
		return x > int64(base)
	case uint64:
		return base < 0 || x > uint64(base)
	case float64:
		return x > float64(base)
	}
	return false
}

// flags reads a boolean array member. Anything else, including a failed
// read, is nil.
func flags(v inspect.Value, name string) []bool {
	m, ok := inspect.Lookup(v, name)
	if !ok || !classify.IsBoolArray(m) {
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

// staffIndices collects the indices whose name mentions staff in any
// string array of length n.
func staffIndices(v inspect.Value, n int) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	for _, m := range members(v) {
		if !classify.IsStringArray(m) {
			continue
		}
		l, err := readList(m)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m.Name, err)
		}
		if l == nil || l.Len() != n {
			continue
		}
		for i := 0; i < n; i++ {
			e, err := l.Elem(i)
			if err != nil || e == nil || e.Kind() == inspect.Null {
				continue
			}
			if s := e.String(); s != "" && extraKeys.Match(s) && !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	return out, nil
}
