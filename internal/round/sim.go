package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
)

// SimExecutor simulates requirement execution without touching an LLM or
// the filesystem. It backs dry runs and tests: each requirement passes all
// of its acceptance criteria unless a scripted failure budget says
// otherwise.
type SimExecutor struct {
	// Latency delays each call, to exercise timeouts and cancellation.
	Latency time.Duration
	// TokensPerCall is reported as usage on every outcome.
	TokensPerCall int64
	// CostPerCall is reported as cost on every outcome.
	CostPerCall float64

	mu        sync.Mutex
	failures  map[string]int
	transient map[string]int
	calls     []string
}

// NewSimExecutor creates a simulated executor that passes everything.
func NewSimExecutor() *SimExecutor {
	return &SimExecutor{
		TokensPerCall: 100,
		CostPerCall:   0.01,
		failures:      make(map[string]int),
		transient:     make(map[string]int),
	}
}

// FailQA makes the next n calls for the requirement fail every acceptance
// criterion before passing.
func (s *SimExecutor) FailQA(requirementID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[requirementID] = n
}

// FailTransient makes the next n calls for the requirement return a
// transient error before succeeding.
func (s *SimExecutor) FailTransient(requirementID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[requirementID] = n
}

// Calls returns the requirement IDs in execution order.
func (s *SimExecutor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// Execute records the call and returns a scripted outcome.
func (s *SimExecutor) Execute(ctx context.Context, req *decompose.SpecRequirement, pctx *ProjectContext) (*ExecutionOutcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.ID)
	failQA := s.failures[req.ID] > 0
	if failQA {
		s.failures[req.ID]--
	}
	failTransient := s.transient[req.ID] > 0
	if failTransient {
		s.transient[req.ID]--
	}
	s.mu.Unlock()

	if s.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Latency):
		}
	}

	if failTransient {
		return nil, fmt.Errorf("simulated outage: %w", ErrTransient)
	}

	total := len(req.Acceptance)
	if total == 0 {
		total = 1
	}
	passed := total
	if failQA {
		passed = 0
	}

	return &ExecutionOutcome{
		Blueprint:  fmt.Sprintf("simulated blueprint for %s", req.ID),
		CodeResult: fmt.Sprintf("simulated implementation for %s", req.ID),
		QA:         QAResult{Passed: passed, Total: total},
		Tokens:     s.TokensPerCall,
		Cost:       s.CostPerCall,
		LLMCalls:   1,
	}, nil
}

var _ Executor = (*SimExecutor)(nil)
