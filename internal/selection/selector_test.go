package selection

import (
	"errors"
	"testing"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/scoring"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

func testAgent(id string, perf, brand, recog float64) *models.AgentProfile {
	return &models.AgentProfile{
		AgentID: id,
		Name:    id,
		Capabilities: models.AgentCapabilities{
			Skills: []string{"go", "grpc"},
			Tools:  []string{"docker"},
		},
		Static: models.StaticScore{Performance: perf, Brand: brand, Recognition: recog},
		Active: true,
	}
}

func testRequirement() *models.Requirement {
	return &models.Requirement{Skills: []string{"go"}}
}

func TestSelectRanksBySBase(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	candidates := []*models.AgentProfile{
		testAgent("low", 0.1, 0.1, 0.1),
		testAgent("high", 0.9, 0.9, 0.9),
		testAgent("mid", 0.5, 0.5, 0.5),
	}

	decision, err := sel.Select(testRequirement(), candidates, 0, SelectOptions{RequirementID: "req-1"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got, want := len(decision.Ranked), 3; got != want {
		t.Fatalf("ranked %d candidates, want %d", got, want)
	}
	for i, want := range []string{"high", "mid", "low"} {
		if decision.Ranked[i].AgentID != want {
			t.Errorf("rank %d = %s, want %s", i, decision.Ranked[i].AgentID, want)
		}
	}
	if decision.SelectedAgentID != "high" {
		t.Errorf("selected %s, want high", decision.SelectedAgentID)
	}
	if decision.Source != SourceSystem {
		t.Errorf("source = %s, want %s", decision.Source, SourceSystem)
	}
}

func TestSelectHardConstraintExclusion(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	withTool := testAgent("equipped", 0.2, 0.2, 0.2)
	withoutTool := testAgent("bare", 0.9, 0.9, 0.9)
	withoutTool.Capabilities.Tools = nil

	req := testRequirement()
	req.Hard.MustTools = []string{"docker"}

	decision, err := sel.Select(req, []*models.AgentProfile{withoutTool, withTool}, 0, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(decision.Ranked) != 1 || decision.Ranked[0].AgentID != "equipped" {
		t.Fatalf("ranked = %+v, want only equipped", decision.Ranked)
	}
	if decision.SelectedAgentID != "equipped" {
		t.Errorf("selected %s, want equipped despite lower score", decision.SelectedAgentID)
	}
}

func TestSelectEmptyDecision(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	req := testRequirement()
	req.Hard.MustCertifications = []string{"iso-27001"}

	decision, err := sel.Select(req, []*models.AgentProfile{testAgent("a", 0.9, 0.9, 0.9)}, 0, SelectOptions{RequirementID: "req-empty"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !decision.Empty() {
		t.Fatal("decision should be empty when no candidate passes the hard filter")
	}
	if decision.Selected() {
		t.Fatal("empty decision must not carry a pick")
	}
	// The dead end is still audited.
	if got := sel.Audit().Len(); got != 1 {
		t.Errorf("audit rounds = %d, want 1", got)
	}
}

func TestSelectBatchIndexOutOfRange(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	candidates := []*models.AgentProfile{testAgent("a", 0.5, 0.5, 0.5)}

	for _, batch := range []int{-1, 1, 7} {
		decision, err := sel.Select(testRequirement(), candidates, batch, SelectOptions{})
		if err != nil {
			t.Fatalf("batch %d: %v", batch, err)
		}
		if !decision.Empty() {
			t.Errorf("batch %d: expected empty decision, got %d ranked", batch, len(decision.Ranked))
		}
	}
}

func TestSelectPagination(t *testing.T) {
	policy := DefaultPolicy()
	policy.TopN = 3
	sel := NewSelector(policy, nil, nil)

	var candidates []*models.AgentProfile
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, name := range names {
		perf := 1.0 - float64(i)*0.1
		candidates = append(candidates, testAgent(name, perf, perf, perf))
	}

	page1, err := sel.Select(testRequirement(), candidates, 1, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got, want := len(page1.Ranked), 3; got != want {
		t.Fatalf("page 1 has %d candidates, want %d", got, want)
	}
	for i, want := range []string{"d", "e", "f"} {
		if page1.Ranked[i].AgentID != want {
			t.Errorf("page 1 rank %d = %s, want %s", i, page1.Ranked[i].AgentID, want)
		}
	}

	page2, err := sel.Select(testRequirement(), candidates, 2, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(page2.Ranked) != 1 || page2.Ranked[0].AgentID != "g" {
		t.Fatalf("page 2 = %+v, want only g", page2.Ranked)
	}
}

func TestSelectColdStartQuota(t *testing.T) {
	policy := DefaultPolicy()
	policy.ColdStartQuota = 1
	sel := NewSelector(policy, nil, nil)

	veteran := testAgent("veteran", 0.9, 0.9, 0.9)
	coldA := testAgent("cold-a", 0.5, 0.5, 0.5)
	coldA.ColdStart = true
	coldB := testAgent("cold-b", 0.5, 0.5, 0.5)
	coldB.ColdStart = true

	decision, err := sel.Select(testRequirement(), []*models.AgentProfile{veteran, coldA, coldB}, 0, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	reserved := 0
	var bonus, penalized *CandidateRanking
	for i := range decision.Ranked {
		r := &decision.Ranked[i]
		if r.ColdStartReserved {
			reserved++
			bonus = r
		} else if r.AgentID != "veteran" {
			penalized = r
		}
	}
	if reserved != 1 {
		t.Fatalf("reserved %d cold-start slots, want exactly 1", reserved)
	}
	if bonus.AgentID != "cold-a" {
		t.Errorf("quota slot went to %s, want cold-a (first in S_base order)", bonus.AgentID)
	}
	if diff := bonus.Combined - penalized.Combined; diff < 0.099 || diff > 0.101 {
		t.Errorf("bonus/penalty gap = %f, want ~0.10", diff)
	}
}

func TestSelectMinFitThreshold(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	agent := testAgent("offtopic", 0.9, 0.9, 0.9)
	agent.Capabilities.Skills = []string{"python"}

	decision, err := sel.Select(testRequirement(), []*models.AgentProfile{agent}, 0, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if decision.Empty() {
		t.Fatal("candidate should still be ranked")
	}
	if decision.Selected() {
		t.Errorf("selected %s below the fit threshold, want no pick", decision.SelectedAgentID)
	}
}

func TestSelectOverride(t *testing.T) {
	sel := NewSelector(DefaultPolicy(), nil, nil)
	candidates := []*models.AgentProfile{
		testAgent("first", 0.9, 0.9, 0.9),
		testAgent("second", 0.5, 0.5, 0.5),
	}

	decision, err := sel.Select(testRequirement(), candidates, 0, SelectOptions{Override: "second"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if decision.SelectedAgentID != "second" {
		t.Errorf("selected %s, want overridden second", decision.SelectedAgentID)
	}
	if decision.Source != SourceUser {
		t.Errorf("source = %s, want %s", decision.Source, SourceUser)
	}

	_, err = sel.Select(testRequirement(), candidates, 0, SelectOptions{Override: "ghost"})
	if !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("override outside the page: err = %v, want ErrInvalidOverride", err)
	}
}

func TestSelectDeterministic(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	stale := testAgent("stale", 0.5, 0.5, 0.5)
	stale.LastSuccessAt = &earlier
	fresh := testAgent("fresh", 0.5, 0.5, 0.5)
	fresh.LastSuccessAt = &later

	sel := NewSelector(DefaultPolicy(), nil, nil)
	for i := 0; i < 10; i++ {
		decision, err := sel.Select(testRequirement(), []*models.AgentProfile{stale, fresh}, 0, SelectOptions{})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if decision.Ranked[0].AgentID != "fresh" || decision.Ranked[1].AgentID != "stale" {
			t.Fatalf("run %d: order %s, %s; want fresh first on more recent success",
				i, decision.Ranked[0].AgentID, decision.Ranked[1].AgentID)
		}
	}
}

func TestSortRankingsTieBreakChain(t *testing.T) {
	ts := func(year int) *time.Time {
		v := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return &v
	}
	mk := func(id string, combined, fit float64, faults int, perf, brand, recog float64, last *time.Time) CandidateRanking {
		return CandidateRanking{
			AgentID:      id,
			Fit:          &scoring.FitBreakdown{Score: fit},
			Combined:     combined,
			ActiveFaults: faults,
			profile: &models.AgentProfile{
				AgentID:       id,
				Static:        models.StaticScore{Performance: perf, Brand: brand, Recognition: recog},
				LastSuccessAt: last,
			},
		}
	}

	// Worst-case input order; each adjacent pair ties on every key before
	// the one that separates them.
	rankings := []CandidateRanking{
		mk("g-no-success", 1.0, 0.8, 0, 0.5, 0.5, 0.5, nil),
		mk("f-old-success", 1.0, 0.8, 0, 0.5, 0.5, 0.5, ts(2024)),
		mk("e-recognition", 1.0, 0.8, 0, 0.5, 0.5, 0.4, ts(2025)),
		mk("d-brand", 1.0, 0.8, 0, 0.5, 0.4, 0.6, ts(2025)),
		mk("c-performance", 1.0, 0.8, 0, 0.4, 0.6, 0.6, ts(2025)),
		mk("b-faults", 1.0, 0.8, 1, 0.6, 0.6, 0.6, ts(2025)),
		mk("a-fit", 1.0, 0.7, 0, 0.6, 0.6, 0.6, ts(2025)),
		mk("top-combined", 0.9, 0.9, 0, 0.9, 0.9, 0.9, ts(2025)),
	}
	// top-combined wins on the first key despite losing every later one.
	rankings[7].Combined = 1.1

	sortRankings(rankings)

	got := make([]string, len(rankings))
	for i, r := range rankings {
		got[i] = r.AgentID
	}
	expected := []string{
		"top-combined",
		"f-old-success",
		"g-no-success",
		"e-recognition",
		"d-brand",
		"c-performance",
		"b-faults",
		"a-fit",
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("order = %v, want %v", got, expected)
		}
	}
}
