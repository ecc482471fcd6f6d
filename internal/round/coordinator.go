package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// DefaultMaxInnerRounds bounds retry passes when a round's options leave
// the limit unset.
const DefaultMaxInnerRounds = 3

// Coordinator manages round lifecycles across projects: one active round
// per project, started asynchronously and cancellable by ID.
type Coordinator struct {
	cfg  Config
	orch *Orchestrator

	// running tracks in-flight rounds by ID
	running map[string]context.CancelFunc
	mu      sync.RWMutex

	// ctx and cancel for coordinator lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// wg tracks running rounds
	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator around the orchestrator config.
func NewCoordinator(cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		cfg:     cfg,
		orch:    New(cfg),
		running: make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start creates and launches a round for the project. It refuses to start
// while the project already has a pending or running round. Returns the
// round ID.
func (c *Coordinator) Start(projectID, requirementText string, opts models.RoundOptions) (string, error) {
	if c.cfg.Executor == nil {
		return "", fmt.Errorf("executor is required")
	}
	if c.cfg.Decomposer == nil {
		return "", fmt.Errorf("decomposer is required")
	}

	active, err := c.cfg.Store.ActiveRound(projectID)
	if err != nil {
		return "", fmt.Errorf("check active round: %w", err)
	}
	if active != nil {
		return "", fmt.Errorf("round %s is already active for project %s", active.ID, projectID)
	}

	number, err := c.cfg.Store.NextRoundNumber(projectID)
	if err != nil {
		return "", fmt.Errorf("next round number: %w", err)
	}

	if opts.MaxInnerRounds < 1 {
		opts.MaxInnerRounds = DefaultMaxInnerRounds
	}

	r := &models.ExecutionRound{
		ID:              uuid.New().String()[:8],
		ProjectID:       projectID,
		RoundNumber:     number,
		Status:          models.RoundPending,
		Options:         opts,
		RequirementText: requirementText,
		StartedAt:       time.Now().UTC(),
	}
	if err := c.cfg.Store.CreateRound(r); err != nil {
		return "", fmt.Errorf("create round: %w", err)
	}

	rctx, rcancel := context.WithCancel(c.ctx)
	c.mu.Lock()
	c.running[r.ID] = rcancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			rcancel()
			c.mu.Lock()
			delete(c.running, r.ID)
			c.mu.Unlock()
		}()
		// Terminal state and error reporting are the orchestrator's job.
		_ = c.orch.Run(rctx, r)
	}()

	return r.ID, nil
}

// Cancel stops a round. In-flight work is cancelled best-effort and its
// results are discarded. Rounds orphaned by a previous process are closed
// directly in the store.
func (c *Coordinator) Cancel(roundID string) error {
	c.mu.RLock()
	rcancel, ok := c.running[roundID]
	c.mu.RUnlock()
	if ok {
		rcancel()
		return nil
	}

	r, err := c.cfg.Store.GetRound(roundID)
	if err != nil {
		return fmt.Errorf("load round: %w", err)
	}
	if r == nil {
		return fmt.Errorf("round %s not found", roundID)
	}
	if r.Status.Terminal() {
		return fmt.Errorf("round %s already %s", roundID, r.Status)
	}

	r.Status = models.RoundCancelled
	r.Summary = "cancelled before completion"
	done := time.Now().UTC()
	r.CompletedAt = &done
	if err := c.cfg.Store.UpdateRound(r); err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}
	return nil
}

// Status returns the round and its execution history.
func (c *Coordinator) Status(roundID string) (*models.ExecutionRound, []models.RequirementExecution, error) {
	r, err := c.cfg.Store.GetRound(roundID)
	if err != nil {
		return nil, nil, fmt.Errorf("load round: %w", err)
	}
	if r == nil {
		return nil, nil, fmt.Errorf("round %s not found", roundID)
	}
	execs, err := c.cfg.Store.ListExecutions(roundID)
	if err != nil {
		return nil, nil, fmt.Errorf("load executions: %w", err)
	}
	return r, execs, nil
}

// Wait blocks until every launched round has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Shutdown cancels all running rounds and waits for them to finish.
func (c *Coordinator) Shutdown() {
	c.cancel()
	c.wg.Wait()
	if c.cfg.Emitter != nil {
		c.cfg.Emitter.Close()
	}
}
