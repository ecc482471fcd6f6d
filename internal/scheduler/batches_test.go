package scheduler

import (
	"reflect"
	"testing"
)

func TestBatchesLinearChain(t *testing.T) {
	// C depends on B depends on A.
	plan := Batches([]string{"A", "B", "C"}, map[string][]string{
		"B": {"A"},
		"C": {"B"},
	})

	want := [][]string{{"A"}, {"B"}, {"C"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
	if plan.HasCycle() {
		t.Error("linear chain must not report a cycle")
	}
}

func TestBatchesIndependent(t *testing.T) {
	plan := Batches([]string{"B", "A"}, nil)

	want := [][]string{{"A", "B"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
}

func TestBatchesDiamond(t *testing.T) {
	plan := Batches([]string{"A", "B", "C", "D"}, map[string][]string{
		"B": {"A"},
		"C": {"A"},
		"D": {"B", "C"},
	})

	want := [][]string{{"A"}, {"B", "C"}, {"D"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
}

func TestBatchesTwoNodeCycle(t *testing.T) {
	plan := Batches([]string{"X", "Y"}, map[string][]string{
		"X": {"Y"},
		"Y": {"X"},
	})

	if len(plan.Batches) == 0 {
		t.Fatal("cycle must still produce a non-empty batch list")
	}
	if !plan.HasCycle() {
		t.Error("expected cycle to be reported")
	}
	want := []string{"X", "Y"}
	if !reflect.DeepEqual(plan.Forced, want) {
		t.Errorf("Forced = %v, want %v", plan.Forced, want)
	}
	last := plan.Batches[len(plan.Batches)-1]
	if !reflect.DeepEqual(last, want) {
		t.Errorf("final forced batch = %v, want %v", last, want)
	}
}

func TestBatchesCycleWithIndependentWork(t *testing.T) {
	// A is independent; X and Y cycle. A must still be scheduled first.
	plan := Batches([]string{"A", "X", "Y"}, map[string][]string{
		"X": {"Y"},
		"Y": {"X"},
	})

	want := [][]string{{"A"}, {"X", "Y"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
	if !plan.HasCycle() {
		t.Error("expected cycle to be reported")
	}
}

func TestBatchesDanglingDependencyIgnored(t *testing.T) {
	// B depends on an ID outside the current set; the edge is ignored.
	plan := Batches([]string{"A", "B"}, map[string][]string{
		"B": {"not-in-set"},
	})

	want := [][]string{{"A", "B"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
	if plan.HasCycle() {
		t.Error("dangling dependency is not a cycle")
	}
}

func TestBatchesSelfDependency(t *testing.T) {
	plan := Batches([]string{"A", "B"}, map[string][]string{
		"A": {"A"},
	})

	// A can never drain; it lands in the forced batch.
	want := [][]string{{"B"}, {"A"}}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Errorf("Batches = %v, want %v", plan.Batches, want)
	}
	if !plan.HasCycle() {
		t.Error("self dependency is a cycle")
	}
}

func TestBatchesEmpty(t *testing.T) {
	plan := Batches(nil, nil)
	if len(plan.Batches) != 0 {
		t.Errorf("expected no batches, got %v", plan.Batches)
	}
	if plan.HasCycle() {
		t.Error("empty input has no cycle")
	}
}

func TestBatchesDeterministicOrder(t *testing.T) {
	deps := map[string][]string{"C": {"A"}, "D": {"A"}}
	first := Batches([]string{"D", "C", "B", "A"}, deps)
	for i := 0; i < 10; i++ {
		again := Batches([]string{"D", "C", "B", "A"}, deps)
		if !reflect.DeepEqual(first.Batches, again.Batches) {
			t.Fatalf("non-deterministic batches: %v vs %v", first.Batches, again.Batches)
		}
	}
}
