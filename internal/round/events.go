// Package round orchestrates multi-round requirement execution.
package round

import "time"

// EventType represents the type of round event.
type EventType string

const (
	// EventRoundStarted indicates a round began executing.
	EventRoundStarted EventType = "round_started"
	// EventRoundCompleted indicates a round reached completed.
	EventRoundCompleted EventType = "round_completed"
	// EventRoundFailed indicates a round aborted on a fatal error.
	EventRoundFailed EventType = "round_failed"
	// EventRoundCancelled indicates a round was cancelled.
	EventRoundCancelled EventType = "round_cancelled"
	// EventInnerRoundStarted indicates a retry pass began.
	EventInnerRoundStarted EventType = "inner_round_started"
	// EventBatchStarted indicates a dependency batch was dispatched.
	EventBatchStarted EventType = "batch_started"
	// EventBatchCompleted indicates a dependency batch fully joined.
	EventBatchCompleted EventType = "batch_completed"
	// EventCycleDegraded indicates cyclic requirements were forced into a
	// final batch.
	EventCycleDegraded EventType = "cycle_degraded"
	// EventExecutionStarted indicates a requirement execution began.
	EventExecutionStarted EventType = "execution_started"
	// EventExecutionCompleted indicates a requirement execution finished.
	EventExecutionCompleted EventType = "execution_completed"
	// EventExecutionFailed indicates a requirement execution failed.
	EventExecutionFailed EventType = "execution_failed"
	// EventExecutionRetried indicates a transient executor error triggered
	// an in-place retry.
	EventExecutionRetried EventType = "execution_retried"
	// EventAgentSelected indicates an agent was assigned to a requirement.
	EventAgentSelected EventType = "agent_selected"
	// EventAgentUnavailable indicates no eligible agent was found.
	EventAgentUnavailable EventType = "agent_unavailable"
)

// Event represents a progress event emitted by the orchestrator.
// Events are fire-and-forget; a slow or absent consumer never blocks
// orchestration.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RoundID is the execution round the event belongs to.
	RoundID string
	// RequirementID is the related requirement, if applicable.
	RequirementID string
	// ExecutionID is the related execution row, if applicable.
	ExecutionID string
	// AgentID is the related agent, if applicable.
	AgentID string
	// InnerRound is the retry pass, if applicable.
	InnerRound int
	// Batch is the batch index within the inner round, if applicable.
	Batch int
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// TokensUsed is the tokens consumed so far, for progress events.
	TokensUsed int64
	// Cost is the cost accumulated so far, for progress events.
	Cost float64
	// Duration is the elapsed time, for progress events.
	Duration time.Duration
}
