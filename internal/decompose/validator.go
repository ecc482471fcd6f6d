package decompose

import (
	"fmt"
	"strings"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/scheduler"
)

// ValidationResult contains the results of validating a parsed spec.
// Errors make the spec unusable; warnings are surfaced but do not block.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks a parsed spec for structural problems. Dependency cycles
// are a warning, not an error: the scheduler degrades them to one forced
// final batch rather than refusing the whole spec.
func Validate(spec *ParsedSpec) ValidationResult {
	result := ValidationResult{Valid: true}

	seen := make(map[string]bool, len(spec.Requirements))
	for _, r := range spec.Requirements {
		if r.ID == "" {
			result.addError("requirement %q has no id", r.Title)
			continue
		}
		if seen[r.ID] {
			result.addError("duplicate requirement id %q", r.ID)
		}
		seen[r.ID] = true

		if strings.TrimSpace(r.Content) == "" {
			result.addError("requirement %q has no content", r.ID)
		}
		if !r.Type.Valid() {
			result.addError("requirement %q has unknown type %q", r.ID, r.Type)
		}
		if len(r.Acceptance) == 0 {
			result.addWarning("requirement %q has no acceptance criteria; pass rate falls back to all-or-nothing", r.ID)
		}
	}

	for _, r := range spec.Requirements {
		for _, dep := range r.DependsOn {
			if dep == r.ID {
				result.addWarning("requirement %q depends on itself", r.ID)
			} else if !seen[dep] {
				result.addWarning("requirement %q depends on unknown %q; the dependency is ignored", r.ID, dep)
			}
		}
	}

	if plan := scheduler.Batches(spec.IDs(), spec.Dependencies()); plan.HasCycle() {
		result.addWarning("dependency cycle among %s; the cycle runs as one final batch", strings.Join(plan.Forced, ", "))
	}

	return result
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
