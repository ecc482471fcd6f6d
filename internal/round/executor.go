package round

import (
	"context"
	"errors"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
)

// ErrTransient marks executor failures worth retrying in place. Executors
// wrap recoverable errors (rate limits, flaky transport) with this sentinel;
// anything else fails the attempt immediately.
var ErrTransient = errors.New("transient execution error")

// QAResult is the executor's verdict on a requirement's acceptance criteria.
type QAResult struct {
	// Passed is how many criteria passed.
	Passed int `json:"passed"`
	// Total is how many criteria were evaluated. Zero means the executor
	// could not enumerate criteria and the pass rate denominator falls
	// back to the requirement's declared criteria count.
	Total int `json:"total"`
	// Details is optional free text about individual criteria.
	Details string `json:"details,omitempty"`
}

// ExecutionOutcome is everything an executor reports back for one attempt.
// The orchestrator treats the payload strings as opaque.
type ExecutionOutcome struct {
	// Blueprint is the planning payload.
	Blueprint string `json:"blueprint,omitempty"`
	// CodeResult is the implementation payload.
	CodeResult string `json:"code_result,omitempty"`
	// QA is the acceptance verdict.
	QA QAResult `json:"qa_result"`
	// ValidationResult is the post-QA validation payload.
	ValidationResult string `json:"validation_result,omitempty"`
	// ModifiedFiles lists files the executor touched.
	ModifiedFiles []string `json:"modified_files,omitempty"`
	// Tokens is the token usage of this attempt.
	Tokens int64 `json:"tokens"`
	// Cost is the cost of this attempt.
	Cost float64 `json:"cost"`
	// LLMCalls is the LLM call count of this attempt.
	LLMCalls int `json:"llm_calls"`
}

// ProjectContext carries round-scoped context into an executor call.
type ProjectContext struct {
	// ProjectID identifies the project being worked on.
	ProjectID string
	// RoundID is the owning execution round.
	RoundID string
	// InnerRound is the retry pass this attempt belongs to.
	InnerRound int
	// Attempt is the attempt number for this requirement.
	Attempt int
	// AgentID is the assigned agent, if one was selected.
	AgentID string
	// PriorError is the failure reason of the previous attempt, if any,
	// so a retry can steer away from the last mistake.
	PriorError string
}

// Executor runs one requirement attempt end to end. Implementations must
// respect context cancellation; the orchestrator enforces a per-attempt
// deadline through the context.
type Executor interface {
	Execute(ctx context.Context, req *decompose.SpecRequirement, pctx *ProjectContext) (*ExecutionOutcome, error)
}

// RetryPolicy bounds in-place retries for transient executor errors.
type RetryPolicy struct {
	// MaxAttempts is the total attempts per execution row, including the
	// first. Values below 1 mean one attempt.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy retries transient errors twice with a short pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// executeWithRetry runs the executor, retrying transient errors per policy.
// Non-transient errors and context cancellation stop immediately.
func executeWithRetry(ctx context.Context, exec Executor, req *decompose.SpecRequirement, pctx *ProjectContext, policy RetryPolicy) (*ExecutionOutcome, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.Delay):
			}
		}

		outcome, err := exec.Execute(ctx, req, pctx)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
	}
	return nil, lastErr
}
