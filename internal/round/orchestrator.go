package round

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/scheduler"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/selection"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/state"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// DefaultPassThreshold is the minimum pass rate for a QA verdict to count
// as passed.
const DefaultPassThreshold = 0.9

// CandidateSource provides the agent pool for per-requirement selection.
// The registry satisfies this.
type CandidateSource interface {
	List(activeOnly bool) []*models.AgentProfile
}

// AgentLedger records execution outcomes back onto agent profiles.
// The registry satisfies this.
type AgentLedger interface {
	RecordSuccess(agentID string, at time.Time) error
	RecordFault(agentID string, rec models.FaultRecord) error
}

// Config wires an orchestrator's collaborators. Store, Executor and
// Decomposer are required; everything else degrades gracefully when absent.
type Config struct {
	// Store persists rounds and execution rows.
	Store state.Store
	// Executor runs individual requirement attempts.
	Executor Executor
	// Decomposer turns the round's requirement text into a parsed spec.
	Decomposer decompose.Decomposer
	// Composer assigns agents per requirement. Nil skips agent selection.
	Composer *selection.Composer
	// Candidates provides the agent pool. Nil skips agent selection.
	Candidates CandidateSource
	// Ledger receives success and fault records. Nil skips recording.
	Ledger AgentLedger
	// Emitter receives progress events. Nil disables events.
	Emitter *EventEmitter
	// Logger receives debug output. Nil disables debug logging.
	Logger *DebugLogger
	// Retry bounds in-place retries for transient executor errors.
	Retry RetryPolicy
	// PassThreshold is the minimum pass rate to count as passed.
	// Zero means DefaultPassThreshold.
	PassThreshold float64
	// WorkerLimit caps concurrent executions within a batch when the
	// round runs parallel. Zero means 4.
	WorkerLimit int
	// RoundTimeout bounds the whole round. Zero means no limit.
	RoundTimeout time.Duration
	// RequirementTimeout bounds one execution attempt. Zero means no limit.
	RequirementTimeout time.Duration
}

// Orchestrator drives one execution round through plan, schedule, execute,
// aggregate and complete. It is the only component that moves a round to a
// terminal state.
type Orchestrator struct {
	cfg    Config
	logger *DebugLogger
}

// New creates an orchestrator, applying defaults for unset config fields.
func New(cfg Config) *Orchestrator {
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = DefaultPassThreshold
	}
	if cfg.WorkerLimit <= 0 {
		cfg.WorkerLimit = 4
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

func (o *Orchestrator) emit(ev Event) {
	if o.cfg.Emitter != nil {
		o.cfg.Emitter.Emit(ev)
	}
}

// Run executes the round to a terminal state. The returned error is non-nil
// only for fatal orchestration failures, round timeouts and cancellation;
// requirement-level failures end the round as completed with a
// partial-failure summary instead.
func (o *Orchestrator) Run(ctx context.Context, r *models.ExecutionRound) error {
	if o.cfg.RoundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RoundTimeout)
		defer cancel()
	}

	r.Status = models.RoundRunning
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if err := o.cfg.Store.UpdateRound(r); err != nil {
		return o.fail(r, fmt.Errorf("persist round: %w", err))
	}
	o.emit(Event{Type: EventRoundStarted, RoundID: r.ID})
	o.logger.Log("round %s: started (project=%s round=%d)", r.ID, r.ProjectID, r.RoundNumber)

	spec, err := o.cfg.Decomposer.Decompose(ctx, r.RequirementText)
	if err != nil {
		if ctx.Err() != nil {
			return o.abort(ctx, r)
		}
		return o.fail(r, fmt.Errorf("decompose requirements: %w", err))
	}
	o.logger.Log("round %s: planned %d requirements", r.ID, len(spec.Requirements))

	// Plan: one pending row per requirement at inner round 1.
	for _, req := range spec.Requirements {
		e := &models.RequirementExecution{
			ID:            newExecutionID(),
			RoundID:       r.ID,
			RequirementID: req.ID,
			InnerRound:    1,
			Attempt:       1,
			DependsOn:     req.DependsOn,
			Status:        models.ExecPending,
		}
		if err := o.cfg.Store.CreateExecution(e); err != nil {
			return o.fail(r, fmt.Errorf("persist execution plan: %w", err))
		}
	}

	maxInner := r.Options.MaxInnerRounds
	if maxInner < 1 {
		maxInner = 1
	}

	for inner := 1; inner <= maxInner; inner++ {
		if ctx.Err() != nil {
			return o.abort(ctx, r)
		}

		r.CurrentInnerRound = inner
		r.TotalInnerRounds = inner
		if err := o.cfg.Store.UpdateRound(r); err != nil {
			return o.fail(r, fmt.Errorf("persist round progress: %w", err))
		}
		o.emit(Event{Type: EventInnerRoundStarted, RoundID: r.ID, InnerRound: inner})

		failed, err := o.runInnerRound(ctx, r, spec, inner)
		if err != nil {
			if ctx.Err() != nil {
				return o.abort(ctx, r)
			}
			return o.fail(r, err)
		}

		if len(failed) == 0 || inner == maxInner {
			break
		}

		// Aggregate: clone failed rows into the next inner round so the
		// retry pass can pick them up.
		for _, prev := range failed {
			clone := &models.RequirementExecution{
				ID:            newExecutionID(),
				RoundID:       r.ID,
				RequirementID: prev.RequirementID,
				InnerRound:    inner + 1,
				Attempt:       prev.Attempt + 1,
				DependsOn:     prev.DependsOn,
				Status:        models.ExecPending,
			}
			if err := o.cfg.Store.CreateExecution(clone); err != nil {
				return o.fail(r, fmt.Errorf("persist retry plan: %w", err))
			}
		}
		o.logger.Log("round %s: inner round %d left %d requirements failing, retrying", r.ID, inner, len(failed))
	}

	return o.complete(r)
}

// runInnerRound schedules and executes all pending rows of one retry pass,
// returning the rows that failed or missed the pass threshold.
func (o *Orchestrator) runInnerRound(ctx context.Context, r *models.ExecutionRound, spec *decompose.ParsedSpec, inner int) ([]*models.RequirementExecution, error) {
	all, err := o.cfg.Store.ListExecutions(r.ID)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	byReq := make(map[string]*models.RequirementExecution)
	priorErrors := make(map[string]string)
	var ids []string
	for i := range all {
		e := &all[i]
		if e.InnerRound == inner && e.Status == models.ExecPending {
			byReq[e.RequirementID] = e
			ids = append(ids, e.RequirementID)
		}
		if e.InnerRound == inner-1 && e.Error != "" {
			priorErrors[e.RequirementID] = e.Error
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	plan := scheduler.Batches(ids, spec.Dependencies())
	if plan.HasCycle() {
		o.emit(Event{
			Type:    EventCycleDegraded,
			RoundID: r.ID,
			Message: fmt.Sprintf("cyclic requirements forced into final batch: %v", plan.Forced),
		})
		o.logger.Log("round %s: dependency cycle, forcing %v into final batch", r.ID, plan.Forced)
	}

	for _, e := range byReq {
		e.Status = models.ExecScheduled
		if err := o.cfg.Store.UpdateExecution(e); err != nil {
			return nil, fmt.Errorf("schedule execution: %w", err)
		}
	}

	limit := 1
	if r.Options.Parallel {
		limit = o.cfg.WorkerLimit
	}

	for bi, batch := range plan.Batches {
		o.emit(Event{Type: EventBatchStarted, RoundID: r.ID, InnerRound: inner, Batch: bi})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for wi, reqID := range batch {
			e := byReq[reqID]
			req := spec.ByID(reqID)
			worker := fmt.Sprintf("worker-%d", wi%limit+1)
			prior := priorErrors[reqID]
			g.Go(func() error {
				return o.runExecution(gctx, r, req, e, worker, prior)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		o.emit(Event{Type: EventBatchCompleted, RoundID: r.ID, InnerRound: inner, Batch: bi})
	}

	var failed []*models.RequirementExecution
	for _, id := range ids {
		e := byReq[id]
		if e.Status == models.ExecFailed || (e.Status == models.ExecCompleted && !e.Passed) {
			failed = append(failed, e)
		}
	}
	return failed, nil
}

// runExecution drives one row from scheduled to its terminal state. It
// returns an error only for context cancellation and store failures;
// executor failures are recorded on the row.
func (o *Orchestrator) runExecution(ctx context.Context, r *models.ExecutionRound, req *decompose.SpecRequirement, e *models.RequirementExecution, worker, priorError string) error {
	now := time.Now().UTC()
	e.Status = models.ExecRunning
	e.StartedAt = &now
	e.WorkerID = worker

	if o.cfg.Composer != nil && o.cfg.Candidates != nil {
		candidates := o.cfg.Candidates.List(true)
		team, err := o.cfg.Composer.SelectTeam(ctx, req.ID, req.Requirement(), candidates)
		switch {
		case err != nil:
			o.logger.Log("round %s: agent selection for %s failed: %v", r.ID, req.ID, err)
		case team.Empty():
			o.emit(Event{Type: EventAgentUnavailable, RoundID: r.ID, RequirementID: req.ID, ExecutionID: e.ID})
			return o.finishFailed(e, "no eligible agent for requirement")
		default:
			e.AgentID = team.Lead().AgentID
			o.emit(Event{Type: EventAgentSelected, RoundID: r.ID, RequirementID: req.ID, ExecutionID: e.ID, AgentID: e.AgentID})
		}
	}

	if err := o.cfg.Store.UpdateExecution(e); err != nil {
		return fmt.Errorf("persist execution start: %w", err)
	}
	o.emit(Event{Type: EventExecutionStarted, RoundID: r.ID, RequirementID: req.ID, ExecutionID: e.ID, InnerRound: e.InnerRound})

	execCtx := ctx
	if o.cfg.RequirementTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, o.cfg.RequirementTimeout)
		defer cancel()
	}

	pctx := &ProjectContext{
		ProjectID:  r.ProjectID,
		RoundID:    r.ID,
		InnerRound: e.InnerRound,
		Attempt:    e.Attempt,
		AgentID:    e.AgentID,
		PriorError: priorError,
	}

	outcome, err := executeWithRetry(execCtx, o.cfg.Executor, req, pctx, o.cfg.Retry)
	if err != nil {
		// A cancelled round discards in-flight results; the row is closed
		// as failed so nothing stays stuck in running.
		if ctx.Err() != nil {
			if ferr := o.finishFailed(e, "cancelled"); ferr != nil {
				return ferr
			}
			return ctx.Err()
		}
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("timeout after %s", o.cfg.RequirementTimeout)
		}
		o.recordFault(e, reason)
		o.emit(Event{Type: EventExecutionFailed, RoundID: r.ID, RequirementID: req.ID, ExecutionID: e.ID, Error: err})
		return o.finishFailed(e, reason)
	}

	done := time.Now().UTC()
	e.CompletedAt = &done
	e.Status = models.ExecCompleted
	e.TokensUsed = outcome.Tokens
	e.Cost = outcome.Cost
	e.LLMCalls = outcome.LLMCalls
	e.Blueprint = outcome.Blueprint
	e.CodeResult = outcome.CodeResult
	if qa, merr := json.Marshal(outcome.QA); merr == nil {
		e.QAResult = string(qa)
	}
	e.PassRate = passRate(outcome.QA, req)
	e.Passed = e.PassRate >= o.cfg.PassThreshold
	if !e.Passed {
		e.Error = fmt.Sprintf("qa passed %d/%d criteria", outcome.QA.Passed, outcome.QA.Total)
		o.recordFault(e, e.Error)
	} else {
		o.recordSuccess(e, done)
	}

	if err := o.cfg.Store.UpdateExecution(e); err != nil {
		return fmt.Errorf("persist execution result: %w", err)
	}
	o.emit(Event{
		Type:          EventExecutionCompleted,
		RoundID:       r.ID,
		RequirementID: req.ID,
		ExecutionID:   e.ID,
		InnerRound:    e.InnerRound,
		AgentID:       e.AgentID,
		TokensUsed:    outcome.Tokens,
		Cost:          outcome.Cost,
	})
	return nil
}

func (o *Orchestrator) finishFailed(e *models.RequirementExecution, reason string) error {
	done := time.Now().UTC()
	e.Status = models.ExecFailed
	e.Error = reason
	e.CompletedAt = &done
	if err := o.cfg.Store.UpdateExecution(e); err != nil {
		return fmt.Errorf("persist execution failure: %w", err)
	}
	return nil
}

func (o *Orchestrator) recordSuccess(e *models.RequirementExecution, at time.Time) {
	if o.cfg.Ledger == nil || e.AgentID == "" {
		return
	}
	if err := o.cfg.Ledger.RecordSuccess(e.AgentID, at); err != nil {
		o.logger.Log("record success for %s: %v", e.AgentID, err)
	}
}

func (o *Orchestrator) recordFault(e *models.RequirementExecution, reason string) {
	if o.cfg.Ledger == nil || e.AgentID == "" {
		return
	}
	rec := models.FaultRecord{
		Severity:    models.FaultMinor,
		OccurredAt:  time.Now().UTC(),
		CoolingDays: 3,
		Reason:      fmt.Sprintf("requirement %s: %s", e.RequirementID, reason),
	}
	if err := o.cfg.Ledger.RecordFault(e.AgentID, rec); err != nil {
		o.logger.Log("record fault for %s: %v", e.AgentID, err)
	}
}

// complete finalizes the round from the latest row per requirement.
// A round whose retries are exhausted still ends as completed, with a
// summary stating the partial failure.
func (o *Orchestrator) complete(r *models.ExecutionRound) error {
	latest, err := o.cfg.Store.LatestExecutions(r.ID)
	if err != nil {
		return o.fail(r, fmt.Errorf("read final executions: %w", err))
	}
	all, err := o.cfg.Store.ListExecutions(r.ID)
	if err != nil {
		return o.fail(r, fmt.Errorf("read execution history: %w", err))
	}

	passed, failed := 0, 0
	for _, e := range latest {
		if e.Status == models.ExecCompleted && e.Passed {
			passed++
		} else {
			failed++
		}
	}
	var tokens int64
	var cost float64
	var calls int
	for i := range all {
		tokens += all[i].TokensUsed
		cost += all[i].Cost
		calls += all[i].LLMCalls
	}

	r.PassedRequirements = passed
	r.FailedRequirements = failed
	r.TokensUsed = tokens
	r.Cost = cost
	r.LLMCalls = calls
	if failed == 0 {
		r.Summary = fmt.Sprintf("all %d requirements passed", len(latest))
	} else {
		r.Summary = fmt.Sprintf("%d/%d requirements passed, %d failed after %d inner rounds", passed, len(latest), failed, r.TotalInnerRounds)
	}
	r.Status = models.RoundCompleted
	done := time.Now().UTC()
	r.CompletedAt = &done

	if err := o.cfg.Store.UpdateRound(r); err != nil {
		return fmt.Errorf("persist round completion: %w", err)
	}
	o.emit(Event{
		Type:       EventRoundCompleted,
		RoundID:    r.ID,
		Message:    r.Summary,
		TokensUsed: tokens,
		Cost:       cost,
		Duration:   done.Sub(r.StartedAt),
	})
	o.logger.Log("round %s: %s", r.ID, r.Summary)
	return nil
}

// abort finalizes a round whose context ended, as cancelled or as failed
// on the round deadline.
func (o *Orchestrator) abort(ctx context.Context, r *models.ExecutionRound) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return o.fail(r, fmt.Errorf("round timeout after %s", o.cfg.RoundTimeout))
	}

	r.Status = models.RoundCancelled
	r.Summary = "cancelled before completion"
	done := time.Now().UTC()
	r.CompletedAt = &done
	if err := o.cfg.Store.UpdateRound(r); err != nil {
		o.logger.Log("round %s: persist cancellation: %v", r.ID, err)
	}
	o.emit(Event{Type: EventRoundCancelled, RoundID: r.ID})
	o.logger.Log("round %s: cancelled", r.ID)
	return context.Canceled
}

// fail marks the round failed on a fatal orchestration error and returns
// the error.
func (o *Orchestrator) fail(r *models.ExecutionRound, cause error) error {
	r.Status = models.RoundFailed
	r.Error = cause.Error()
	done := time.Now().UTC()
	r.CompletedAt = &done
	if err := o.cfg.Store.UpdateRound(r); err != nil {
		o.logger.Log("round %s: persist failure: %v", r.ID, err)
	}
	o.emit(Event{Type: EventRoundFailed, RoundID: r.ID, Error: cause})
	o.logger.Log("round %s: failed: %v", r.ID, cause)
	return cause
}

// passRate computes passed over total criteria. When the executor could not
// enumerate criteria the denominator falls back to the requirement's
// declared acceptance criteria, then to 1 (all-or-nothing).
func passRate(qa QAResult, req *decompose.SpecRequirement) float64 {
	total := qa.Total
	if total <= 0 {
		total = len(req.Acceptance)
	}
	if total <= 0 {
		total = 1
	}
	passed := qa.Passed
	if passed < 0 {
		passed = 0
	}
	if passed > total {
		passed = total
	}
	return float64(passed) / float64(total)
}

func newExecutionID() string {
	return uuid.New().String()[:8]
}
