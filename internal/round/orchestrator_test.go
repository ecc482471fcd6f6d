package round

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/selection"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/state"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

func setupStore(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type stubDecomposer struct {
	spec *decompose.ParsedSpec
	err  error
}

func (d stubDecomposer) Decompose(ctx context.Context, _ string) (*decompose.ParsedSpec, error) {
	return d.spec, d.err
}

func specOf(reqs ...decompose.SpecRequirement) *decompose.ParsedSpec {
	return &decompose.ParsedSpec{Project: "demo", Requirements: reqs}
}

func specReq(id string, deps ...string) decompose.SpecRequirement {
	return decompose.SpecRequirement{
		ID:         id,
		Title:      "requirement " + id,
		Content:    "do the work for " + id,
		DependsOn:  deps,
		Acceptance: []string{"builds", "tests pass"},
	}
}

func createRound(t *testing.T, db *state.DB, maxInner int) *models.ExecutionRound {
	t.Helper()
	r := &models.ExecutionRound{
		ID:          "rnd-test",
		ProjectID:   "demo",
		RoundNumber: 1,
		Status:      models.RoundPending,
		Options:     models.RoundOptions{MaxInnerRounds: maxInner},
		StartedAt:   time.Now().UTC(),
	}
	if err := db.CreateRound(r); err != nil {
		t.Fatalf("CreateRound() error = %v", err)
	}
	return r
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond}
}

func TestRunAllPass(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	r := createRound(t, db, 3)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"), specReq("r2", "r1"))},
		Retry:      fastRetry(),
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.Status != models.RoundCompleted {
		t.Errorf("Status = %v, want completed", r.Status)
	}
	if r.PassedRequirements != 2 || r.FailedRequirements != 0 {
		t.Errorf("passed/failed = %d/%d, want 2/0", r.PassedRequirements, r.FailedRequirements)
	}
	if r.Summary != "all 2 requirements passed" {
		t.Errorf("Summary = %q", r.Summary)
	}
	if r.TokensUsed != 200 {
		t.Errorf("TokensUsed = %d, want 200", r.TokensUsed)
	}

	calls := sim.Calls()
	if len(calls) != 2 || calls[0] != "r1" || calls[1] != "r2" {
		t.Errorf("execution order = %v, want [r1 r2]", calls)
	}

	stored, err := db.GetRound(r.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetRound() = %v, %v", stored, err)
	}
	if stored.Status != models.RoundCompleted || stored.CompletedAt == nil {
		t.Errorf("stored round = %+v, want completed with timestamp", stored)
	}
}

func TestRunRetriesUntilExhausted(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	sim.FailQA("r1", 10)
	r := createRound(t, db, 3)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"))},
		Retry:      fastRetry(),
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Exhausted retries end the round completed, never failed.
	if r.Status != models.RoundCompleted {
		t.Errorf("Status = %v, want completed", r.Status)
	}
	if r.FailedRequirements != 1 || r.PassedRequirements != 0 {
		t.Errorf("passed/failed = %d/%d, want 0/1", r.PassedRequirements, r.FailedRequirements)
	}
	if !strings.Contains(r.Summary, "0/1 requirements passed") {
		t.Errorf("Summary = %q, want partial-failure wording", r.Summary)
	}
	if r.TotalInnerRounds != 3 {
		t.Errorf("TotalInnerRounds = %d, want 3", r.TotalInnerRounds)
	}

	execs, err := db.ListExecutions(r.ID)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(execs) != 3 {
		t.Fatalf("execution rows = %d, want 3", len(execs))
	}
	for i, e := range execs {
		if e.InnerRound != i+1 || e.Attempt != i+1 {
			t.Errorf("row %d = inner %d attempt %d, want %d/%d", i, e.InnerRound, e.Attempt, i+1, i+1)
		}
		if e.Passed {
			t.Errorf("row %d passed, want failed QA", i)
		}
	}
}

func TestRunSecondInnerRoundRecovers(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	sim.FailQA("r2", 1)
	r := createRound(t, db, 3)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"), specReq("r2", "r1"))},
		Retry:      fastRetry(),
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.PassedRequirements != 2 || r.FailedRequirements != 0 {
		t.Errorf("passed/failed = %d/%d, want 2/0", r.PassedRequirements, r.FailedRequirements)
	}
	if r.TotalInnerRounds != 2 {
		t.Errorf("TotalInnerRounds = %d, want 2", r.TotalInnerRounds)
	}

	execs, err := db.ListExecutions(r.ID)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	var r2Rows []models.RequirementExecution
	for _, e := range execs {
		if e.RequirementID == "r2" {
			r2Rows = append(r2Rows, e)
		}
	}
	if len(r2Rows) != 2 {
		t.Fatalf("r2 rows = %d, want 2", len(r2Rows))
	}
	if r2Rows[0].Passed || !r2Rows[1].Passed {
		t.Errorf("r2 rows passed = %v/%v, want false/true", r2Rows[0].Passed, r2Rows[1].Passed)
	}
	if r2Rows[1].InnerRound != 2 || r2Rows[1].Attempt != 2 {
		t.Errorf("r2 retry row = inner %d attempt %d, want 2/2", r2Rows[1].InnerRound, r2Rows[1].Attempt)
	}
}

func TestRunRetriesTransientErrors(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	sim.FailTransient("r1", 1)
	r := createRound(t, db, 1)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"))},
		Retry:      RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond},
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.PassedRequirements != 1 {
		t.Errorf("PassedRequirements = %d, want 1 after transient retry", r.PassedRequirements)
	}
	if calls := sim.Calls(); len(calls) != 2 {
		t.Errorf("executor calls = %d, want 2", len(calls))
	}
}

func TestRunFatalDecomposeError(t *testing.T) {
	db := setupStore(t)
	r := createRound(t, db, 3)

	orch := New(Config{
		Store:      db,
		Executor:   NewSimExecutor(),
		Decomposer: stubDecomposer{err: errors.New("spec file unreadable")},
		Retry:      fastRetry(),
	})
	err := orch.Run(context.Background(), r)
	if err == nil {
		t.Fatal("Run() error = nil, want fatal error")
	}

	if r.Status != models.RoundFailed {
		t.Errorf("Status = %v, want failed", r.Status)
	}
	if !strings.Contains(r.Error, "spec file unreadable") {
		t.Errorf("Error = %q, want decompose cause", r.Error)
	}
}

func TestRunRequirementTimeout(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	sim.Latency = 200 * time.Millisecond
	r := createRound(t, db, 1)

	orch := New(Config{
		Store:              db,
		Executor:           sim,
		Decomposer:         stubDecomposer{spec: specOf(specReq("r1"))},
		Retry:              fastRetry(),
		RequirementTimeout: 20 * time.Millisecond,
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.Status != models.RoundCompleted {
		t.Errorf("Status = %v, want completed", r.Status)
	}
	if r.FailedRequirements != 1 {
		t.Errorf("FailedRequirements = %d, want 1", r.FailedRequirements)
	}

	execs, err := db.ListExecutions(r.ID)
	if err != nil || len(execs) != 1 {
		t.Fatalf("ListExecutions() = %d rows, %v", len(execs), err)
	}
	if execs[0].Status != models.ExecFailed || !strings.Contains(execs[0].Error, "timeout") {
		t.Errorf("row = %s %q, want failed with timeout reason", execs[0].Status, execs[0].Error)
	}
}

func TestRunCancellation(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	sim.Latency = 5 * time.Second
	r := createRound(t, db, 3)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"))},
		Retry:      fastRetry(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := orch.Run(ctx, r)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if r.Status != models.RoundCancelled {
		t.Errorf("Status = %v, want cancelled", r.Status)
	}

	// In-flight results are discarded, rows are closed out.
	execs, err := db.ListExecutions(r.ID)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	for _, e := range execs {
		if e.Status == models.ExecRunning {
			t.Errorf("row %s stuck in running after cancel", e.ID)
		}
		if e.Blueprint != "" {
			t.Errorf("row %s kept a result from cancelled work", e.ID)
		}
	}
}

type fixedCandidates struct {
	agents []*models.AgentProfile
}

func (f fixedCandidates) List(activeOnly bool) []*models.AgentProfile {
	return f.agents
}

type memLedger struct {
	successes []string
	faults    []string
}

func (l *memLedger) RecordSuccess(agentID string, at time.Time) error {
	l.successes = append(l.successes, agentID)
	return nil
}

func (l *memLedger) RecordFault(agentID string, rec models.FaultRecord) error {
	l.faults = append(l.faults, agentID)
	return nil
}

func TestRunAssignsAgentAndRecordsSuccess(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	r := createRound(t, db, 1)

	agent := &models.AgentProfile{
		AgentID: "ag-1",
		Name:    "builder",
		Active:  true,
		Capabilities: models.AgentCapabilities{
			Skills: []string{"go"},
		},
		Static: models.StaticScore{Performance: 0.8, Brand: 0.7, Recognition: 0.6},
	}
	selector := selection.NewSelector(selection.DefaultPolicy(), nil, nil)
	ledger := &memLedger{}

	req := specReq("r1")
	req.Skills = []string{"go"}

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(req)},
		Composer:   selection.NewComposer(selector, nil, false),
		Candidates: fixedCandidates{agents: []*models.AgentProfile{agent}},
		Ledger:     ledger,
		Retry:      fastRetry(),
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	execs, err := db.ListExecutions(r.ID)
	if err != nil || len(execs) != 1 {
		t.Fatalf("ListExecutions() = %d rows, %v", len(execs), err)
	}
	if execs[0].AgentID != "ag-1" {
		t.Errorf("AgentID = %q, want ag-1", execs[0].AgentID)
	}
	if len(ledger.successes) != 1 || ledger.successes[0] != "ag-1" {
		t.Errorf("ledger successes = %v, want [ag-1]", ledger.successes)
	}
}

func TestRunFailsRequirementWithoutEligibleAgent(t *testing.T) {
	db := setupStore(t)
	sim := NewSimExecutor()
	r := createRound(t, db, 1)

	selector := selection.NewSelector(selection.DefaultPolicy(), nil, nil)

	orch := New(Config{
		Store:      db,
		Executor:   sim,
		Decomposer: stubDecomposer{spec: specOf(specReq("r1"))},
		Composer:   selection.NewComposer(selector, nil, false),
		Candidates: fixedCandidates{},
		Retry:      fastRetry(),
	})
	if err := orch.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.FailedRequirements != 1 {
		t.Errorf("FailedRequirements = %d, want 1", r.FailedRequirements)
	}
	if calls := sim.Calls(); len(calls) != 0 {
		t.Errorf("executor ran %d times without an agent, want 0", len(calls))
	}
}

func TestPassRate(t *testing.T) {
	withAcceptance := specReq("r1")
	bare := decompose.SpecRequirement{ID: "r2", Content: "bare"}

	tests := []struct {
		name string
		qa   QAResult
		req  decompose.SpecRequirement
		want float64
	}{
		{"all pass", QAResult{Passed: 4, Total: 4}, withAcceptance, 1.0},
		{"partial", QAResult{Passed: 3, Total: 4}, withAcceptance, 0.75},
		{"fallback to acceptance count", QAResult{Passed: 2, Total: 0}, withAcceptance, 1.0},
		{"fallback to all-or-nothing", QAResult{Passed: 0, Total: 0}, bare, 0.0},
		{"clamped above total", QAResult{Passed: 9, Total: 4}, withAcceptance, 1.0},
		{"negative passed", QAResult{Passed: -1, Total: 4}, withAcceptance, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := passRate(tt.qa, &tt.req)
			if got != tt.want {
				t.Errorf("passRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
