package models

import "time"

// RoundStatus represents the state of an execution round.
type RoundStatus string

const (
	// RoundPending indicates the round has been created but not started.
	RoundPending RoundStatus = "pending"
	// RoundRunning indicates the round is executing.
	RoundRunning RoundStatus = "running"
	// RoundCompleted indicates the round finished (possibly with partial failures).
	RoundCompleted RoundStatus = "completed"
	// RoundFailed indicates the round aborted on a fatal orchestration error.
	RoundFailed RoundStatus = "failed"
	// RoundCancelled indicates the round was cancelled before completion.
	RoundCancelled RoundStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s RoundStatus) Valid() bool {
	switch s {
	case RoundPending, RoundRunning, RoundCompleted, RoundFailed, RoundCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true for states from which no further transition is allowed.
func (s RoundStatus) Terminal() bool {
	switch s {
	case RoundCompleted, RoundFailed, RoundCancelled:
		return true
	default:
		return false
	}
}

// RoundOptions controls execution behavior for one round.
type RoundOptions struct {
	// MaxInnerRounds bounds how many retry passes the round may take.
	MaxInnerRounds int `json:"max_inner_rounds"`
	// Parallel enables parallel execution within a batch.
	Parallel bool `json:"parallel"`
}

// ExecutionRound is one end-to-end attempt to satisfy a requirement set
// for a project. Terminal states are final; only the round orchestrator
// mutates an ExecutionRound.
type ExecutionRound struct {
	// ID is the unique identifier for this round.
	ID string `json:"id"`
	// ProjectID identifies the project this round belongs to.
	ProjectID string `json:"project_id"`
	// RoundNumber is the ordinal of this round within the project.
	RoundNumber int `json:"round_number"`
	// Status is the current state of the round.
	Status RoundStatus `json:"status"`
	// Options are the execution options the round was started with.
	Options RoundOptions `json:"options"`
	// RequirementText is the raw requirement text handed to the decomposer.
	RequirementText string `json:"requirement_text,omitempty"`
	// CurrentInnerRound is the inner round currently executing (1-based).
	CurrentInnerRound int `json:"current_inner_round"`
	// TotalInnerRounds is how many inner rounds actually ran.
	TotalInnerRounds int `json:"total_inner_rounds"`
	// PassedRequirements counts requirements whose latest execution passed.
	PassedRequirements int `json:"passed_requirements"`
	// FailedRequirements counts requirements whose latest execution failed.
	FailedRequirements int `json:"failed_requirements"`
	// TokensUsed is the total token usage across all attempts.
	TokensUsed int64 `json:"tokens_used"`
	// Cost is the total cost across all attempts.
	Cost float64 `json:"cost"`
	// LLMCalls is the total LLM call count across all attempts.
	LLMCalls int `json:"llm_calls"`
	// Summary is the human-readable terminal summary.
	Summary string `json:"summary,omitempty"`
	// Error holds the fatal error for failed rounds.
	Error string `json:"error,omitempty"`
	// StartedAt is when the round started running.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the round reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExecutionStatus represents the state of one requirement execution.
type ExecutionStatus string

const (
	// ExecPending indicates the execution has not been scheduled.
	ExecPending ExecutionStatus = "pending"
	// ExecScheduled indicates the execution is in a dispatch plan.
	ExecScheduled ExecutionStatus = "scheduled"
	// ExecRunning indicates the execution is in flight.
	ExecRunning ExecutionStatus = "running"
	// ExecCompleted indicates the executor returned a result.
	ExecCompleted ExecutionStatus = "completed"
	// ExecFailed indicates the executor errored out (after retries).
	ExecFailed ExecutionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecPending, ExecScheduled, ExecRunning, ExecCompleted, ExecFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once the execution can no longer change state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecCompleted || s == ExecFailed
}

// RequirementExecution is one (requirement, inner round, attempt) triple.
// A requirement accumulates one row per retry attempt across inner rounds;
// the row with the highest (inner_round, attempt) decides its final state.
type RequirementExecution struct {
	// ID is the unique identifier for this execution row.
	ID string `json:"id"`
	// RoundID is the owning execution round.
	RoundID string `json:"round_id"`
	// RequirementID identifies the requirement being executed.
	RequirementID string `json:"requirement_id"`
	// InnerRound is the retry pass this row belongs to (1-based).
	InnerRound int `json:"inner_round"`
	// Attempt is the attempt number for this requirement (1-based).
	Attempt int `json:"attempt"`
	// DependsOn lists requirement IDs that must complete first.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of this execution.
	Status ExecutionStatus `json:"status"`
	// Passed is true when the pass rate met the threshold.
	Passed bool `json:"is_passed"`
	// PassRate is passed criteria over total criteria.
	PassRate float64 `json:"pass_rate"`
	// AgentID is the agent assigned to this execution, if any.
	AgentID string `json:"agent_id,omitempty"`
	// WorkerID identifies the worker slot that ran this execution.
	WorkerID string `json:"worker_id,omitempty"`
	// TokensUsed is the token usage of this attempt.
	TokensUsed int64 `json:"tokens_used"`
	// Cost is the cost of this attempt.
	Cost float64 `json:"cost"`
	// LLMCalls is the LLM call count of this attempt.
	LLMCalls int `json:"llm_calls"`
	// Blueprint is the executor's blueprint payload, opaque to the scheduler.
	Blueprint string `json:"blueprint,omitempty"`
	// CodeResult is the executor's code payload, opaque to the scheduler.
	CodeResult string `json:"code_result,omitempty"`
	// QAResult is the executor's QA payload, opaque to the scheduler.
	QAResult string `json:"qa_result,omitempty"`
	// Error holds the failure reason for failed executions.
	Error string `json:"error,omitempty"`
	// StartedAt is when the execution began running.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the execution reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Newer reports whether this execution supersedes the other row for the
// same requirement (higher inner round, then higher attempt).
func (e *RequirementExecution) Newer(other *RequirementExecution) bool {
	if other == nil {
		return true
	}
	if e.InnerRound != other.InnerRound {
		return e.InnerRound > other.InnerRound
	}
	return e.Attempt > other.Attempt
}
