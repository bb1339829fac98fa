package classify

import "strings"

// Filter is an ordered set of case-insensitive substrings matched against
// member and node names. The zero Filter accepts everything.
type Filter struct {
	keys []string
}

// NewFilter lower-cases and de-duplicates keys, keeping their order.
// Empty keys are dropped.
func NewFilter(keys ...string) Filter {
	var f Filter
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		f.keys = append(f.keys, k)
	}
	return f
}

// Empty reports whether f accepts every name.
func (f Filter) Empty() bool { return len(f.keys) == 0 }

// Match reports whether name contains at least one key.
func (f Filter) Match(name string) bool {
	if f.Empty() {
		return true
	}
	n := strings.ToLower(name)
	for _, k := range f.keys {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// MatchAll reports whether name contains every key.
func (f Filter) MatchAll(name string) bool {
	n := strings.ToLower(name)
	for _, k := range f.keys {
		if !strings.Contains(n, k) {
			return false
		}
	}
	return true
}

func (f Filter) Keys() []string { return append([]string(nil), f.keys...) }

func (f Filter) String() string { return strings.Join(f.keys, ",") }

// Vocabularies used by the report drivers.
var (
	// UnlockKeys selects boolean unlock flags on candidate components.
	UnlockKeys = NewFilter("unlock")

	// SceneInterestKeys marks scene nodes worth a "Node:" header.
	SceneInterestKeys = NewFilter("skill", "achiev", "employee", "upgrade")

	// CandidateTypeKeys selects components scanned for unlock flags.
	CandidateTypeKeys = NewFilter("achiev", "skill", "employee")

	// SkillSystemTypeKeys selects components for the skill systems report.
	SkillSystemTypeKeys = NewFilter("skill", "skills", "upgrade", "upgrades", "blackboard")

	SkillMemberKeys = NewFilter("skill", "point", "upgrade", "unlocked", "unlock", "employee", "max", "cap", "limit", "npc")

	GenerationMemberKeys = NewFilter("employee", "max", "min", "count", "npc")

	LimitMemberKeys = NewFilter("employee", "npc", "unlock", "upgrade", "achiev", "max")

	// IndexLikeKeys selects integer arrays that may map achievement indices.
	IndexLikeKeys = NewFilter("achiev", "unlock", "employee")

	// ElementSummaryKeys picks the sub-members printed for non-scalar
	// collection elements.
	ElementSummaryKeys = NewFilter("name", "title", "id", "unlock", "employee", "skill")

	EmployeeKeys = NewFilter("employee", "employees", "npc", "staff", "hire", "hired", "worker")

	// UIRootKeywords locate the buttons bar when it is not found by name.
	UIRootKeywords = NewFilter("button", "bar")
)
