// Package scheduler orders requirements into parallelizable batches.
package scheduler

import "sort"

// Plan is the result of batching one requirement set.
type Plan struct {
	// Batches are sets of requirement IDs with no dependency among them.
	// Batches run strictly in sequence; members of a batch may run in
	// parallel. Each batch is sorted lexicographically for determinism.
	Batches [][]string
	// Forced lists IDs that were part of a dependency cycle and were
	// appended as one final batch instead of deadlocking the round.
	// Ordering inside a forced batch is not dependency-correct.
	Forced []string
}

// HasCycle returns true when the input contained a dependency cycle.
func (p *Plan) HasCycle() bool {
	return len(p.Forced) > 0
}

// Batches computes topological batches over the requirement IDs using
// Kahn's algorithm. Only edges between IDs present in the set are
// considered; dangling dependency references are ignored. Nodes left with
// positive in-degree after the algorithm drains (a cycle) are appended as
// one final forced batch rather than raising an error.
func Batches(ids []string, deps map[string][]string) *Plan {
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}

	inDegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, id := range ids {
		for _, dep := range deps[id] {
			if !present[dep] {
				continue
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	plan := &Plan{}
	scheduled := make(map[string]bool, len(ids))

	ready := zeroDegree(ids, inDegree, scheduled)
	for len(ready) > 0 {
		sort.Strings(ready)
		plan.Batches = append(plan.Batches, ready)

		for _, id := range ready {
			scheduled[id] = true
		}
		for _, id := range ready {
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
			}
		}
		ready = zeroDegree(ids, inDegree, scheduled)
	}

	// Anything left is part of a cycle. Force it into a final batch so the
	// round can still make best-effort progress.
	var forced []string
	for _, id := range ids {
		if !scheduled[id] {
			forced = append(forced, id)
		}
	}
	if len(forced) > 0 {
		sort.Strings(forced)
		plan.Batches = append(plan.Batches, forced)
		plan.Forced = forced
	}

	return plan
}

// zeroDegree returns unscheduled IDs whose in-degree has reached zero.
func zeroDegree(ids []string, inDegree map[string]int, scheduled map[string]bool) []string {
	var ready []string
	for _, id := range ids {
		if !scheduled[id] && inDegree[id] <= 0 {
			ready = append(ready, id)
		}
	}
	return ready
}
