package selection

import "github.com/Hiveagents-ones/HiveCore-sub002/internal/scoring"

// defaultRoleSkills maps team role names to their fixed skill sets. Role
// skills take priority over a requirement's combined skills when building
// role-scoped requirements, so one wide requirement does not dilute the
// per-role fit score.
var defaultRoleSkills = map[string][]string{
	"architect": {"system-design", "api-design", "architecture"},
	"backend":   {"go", "api-design", "sql", "backend"},
	"frontend":  {"javascript", "typescript", "frontend", "css"},
	"data":      {"sql", "data-modeling", "etl"},
	"devops":    {"infrastructure", "kubernetes", "ci-cd"},
	"qa":        {"testing", "test-automation"},
	"security":  {"security", "compliance"},
}

// RoleSkills returns the fixed skill set for a role name, or nil for an
// unknown role. Role names are canonicalized like skills.
func RoleSkills(role string) []string {
	return defaultRoleSkills[scoring.Canonical(role)]
}

// InferRole returns the role whose fixed skill set overlaps the given
// skills the most. Ties resolve to the lexicographically smaller role for
// determinism; no overlap returns "generalist".
func InferRole(skills []string) string {
	canonical := scoring.CanonicalSet(skills)
	have := make(map[string]bool, len(canonical))
	for _, s := range canonical {
		have[s] = true
	}

	best := "generalist"
	bestOverlap := 0
	for role, roleSkills := range defaultRoleSkills {
		overlap := 0
		for _, s := range scoring.CanonicalSet(roleSkills) {
			if have[s] {
				overlap++
			}
		}
		if overlap > bestOverlap || (overlap == bestOverlap && overlap > 0 && role < best) {
			best = role
			bestOverlap = overlap
		}
	}
	return best
}
