package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/round"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/selection"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/state"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/strategy"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

var (
	runProject   string
	runMaxRounds int
	runSerial    bool
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run <spec.yaml>",
	Short: "Execute a requirement spec as one round",
	Long: `Run a requirement spec end to end.

The spec file lists requirements with dependencies, acceptance criteria
and capability needs. HiveCore batches the requirements by dependency,
assigns each to the best-fitting agent, and retries failures across
inner rounds until everything passes or the retry budget runs out.

Examples:
  hivecore run spec.yaml                 # run with configured defaults
  hivecore run spec.yaml --max-rounds 5  # allow more retry passes
  hivecore run spec.yaml --dry-run       # simulate without calling the API`,
	Args: cobra.ExactArgs(1),
	RunE: runRound,
}

func init() {
	runCmd.Flags().StringVar(&runProject, "project", "", "Project ID (defaults to the working directory name)")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 0, "Maximum inner rounds (0 uses the configured default)")
	runCmd.Flags().BoolVar(&runSerial, "serial", false, "Run one requirement at a time within each batch")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Simulate execution without calling the Anthropic API")
}

func runRound(cmd *cobra.Command, args []string) error {
	specPath := args[0]
	if _, err := os.Stat(specPath); err != nil {
		return fmt.Errorf("spec file not found: %s", specPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectID := runProject
	if projectID == "" {
		projectID = filepath.Base(cwd)
	}

	db, err := state.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()
	if cfg.Registry.Watch {
		if err := reg.Watch(func(rerr error) {
			if rerr != nil {
				fmt.Fprintf(os.Stderr, "registry reload failed: %v\n", rerr)
			}
		}); err != nil {
			fmt.Fprintf(os.Stderr, "registry watch unavailable: %v\n", err)
		}
	}

	executor, analyzer, err := buildExecutor(cfg)
	if err != nil {
		return err
	}

	composer := selection.NewComposer(buildSelector(cfg), analyzer, cfg.Selection.MultiAgent)
	emitter := round.NewEventEmitter(100)
	logger := round.NewDebugLoggerForProject(cwd)
	defer logger.Close()

	maxRounds := cfg.Round.MaxInnerRounds
	if runMaxRounds > 0 {
		maxRounds = runMaxRounds
	}

	coordinator := round.NewCoordinator(round.Config{
		Store:      db,
		Executor:   executor,
		Decomposer: decompose.NewFileDecomposer(specPath),
		Composer:   composer,
		Candidates: reg,
		Ledger:     reg,
		Emitter:    emitter,
		Logger:     logger,
		Retry: round.RetryPolicy{
			MaxAttempts: cfg.Round.RetryAttempts,
			Delay:       cfg.Round.RetryDelay,
		},
		PassThreshold:      cfg.Round.PassThreshold,
		WorkerLimit:        cfg.Round.WorkerLimit,
		RoundTimeout:       cfg.Round.RoundTimeout,
		RequirementTimeout: cfg.Round.RequirementTimeout,
	})

	opts := models.RoundOptions{
		MaxInnerRounds: maxRounds,
		Parallel:       cfg.Round.Parallel && !runSerial,
	}

	roundID, err := coordinator.Start(projectID, specPath, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Started round %s for project %s\n", roundID, projectID)

	// Ctrl-C cancels the round instead of killing the process outright.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		coordinator.Cancel(roundID)
	}()

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range emitter.Events() {
			printEvent(ev)
		}
	}()

	coordinator.Wait()
	coordinator.Shutdown()
	<-printed

	return printRoundResult(coordinator, roundID)
}

// openRegistry opens the roster from config, falling back to the default
// location under the user data directory.
func openRegistry(cfg *config.Config) (*registry.Registry, error) {
	path := cfg.Registry.Path
	if path == "" {
		path = config.DefaultRegistryPath()
	}
	reg, err := registry.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open agent registry: %w", err)
	}
	return reg, nil
}

// buildSelector assembles the selector from configured policy knobs.
func buildSelector(cfg *config.Config) *selection.Selector {
	policy := selection.DefaultPolicy()
	policy.TopN = cfg.Selection.TopN
	policy.RequirementWeight = cfg.Selection.RequirementWeight
	policy.MinFitThreshold = cfg.Selection.MinFitThreshold
	policy.ColdStartQuota = cfg.Selection.ColdStartQuota
	policy.ColdStartBonus = cfg.Selection.ColdStartBonus
	policy.ColdStartPenalty = cfg.Selection.ColdStartPenalty
	policy.Base.Performance = cfg.Weights.Performance
	policy.Base.Brand = cfg.Weights.Brand
	policy.Base.Recognition = cfg.Weights.Recognition
	policy.Base.Fault = cfg.Weights.Fault

	return selection.NewSelector(policy, nil, selection.NewAuditLog(cfg.Selection.AuditCapacity))
}

// buildExecutor returns the requirement executor and, in multi-agent mode,
// the team analysis strategy. Dry runs use the simulator and never touch
// the API.
func buildExecutor(cfg *config.Config) (round.Executor, selection.Strategy, error) {
	if runDryRun {
		return round.NewSimExecutor(), nil, nil
	}

	client, err := strategy.NewClient(strategy.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create Anthropic client: %w", err)
	}

	var analyzer selection.Strategy
	if cfg.Selection.MultiAgent {
		analyzer = strategy.NewAnalyzer(client)
	}
	return strategy.NewRequirementExecutor(client), analyzer, nil
}

func printEvent(ev round.Event) {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Type {
	case round.EventInnerRoundStarted:
		color.Cyan("[%s] inner round %d", ts, ev.InnerRound)
	case round.EventBatchStarted:
		fmt.Printf("[%s]   batch %d started\n", ts, ev.Batch+1)
	case round.EventAgentSelected:
		fmt.Printf("[%s]   %s -> agent %s\n", ts, ev.RequirementID, ev.AgentID)
	case round.EventAgentUnavailable:
		color.Yellow("[%s]   %s: no eligible agent", ts, ev.RequirementID)
	case round.EventExecutionCompleted:
		color.Green("[%s]   %s done (%d tokens)", ts, ev.RequirementID, ev.TokensUsed)
	case round.EventExecutionFailed:
		color.Red("[%s]   %s failed: %v", ts, ev.RequirementID, ev.Error)
	case round.EventCycleDegraded:
		color.Yellow("[%s] %s", ts, ev.Message)
	case round.EventRoundCompleted:
		color.Green("[%s] %s", ts, ev.Message)
	case round.EventRoundFailed:
		color.Red("[%s] round failed: %v", ts, ev.Error)
	case round.EventRoundCancelled:
		color.Yellow("[%s] round cancelled", ts)
	}
}

func printRoundResult(c *round.Coordinator, roundID string) error {
	r, execs, err := c.Status(roundID)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Round %s: %s\n", r.ID, r.Status)
	if r.Summary != "" {
		fmt.Printf("  %s\n", r.Summary)
	}
	if r.Error != "" {
		fmt.Printf("  error: %s\n", r.Error)
	}
	fmt.Printf("  inner rounds: %d, executions: %d\n", r.TotalInnerRounds, len(execs))
	fmt.Printf("  tokens: %d, cost: $%.4f, llm calls: %d\n", r.TokensUsed, r.Cost, r.LLMCalls)
	if r.CompletedAt != nil {
		fmt.Printf("  duration: %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Second))
	}

	if r.Status == models.RoundFailed {
		return fmt.Errorf("round %s failed", r.ID)
	}
	if r.FailedRequirements > 0 {
		return fmt.Errorf("%d requirements still failing", r.FailedRequirements)
	}
	return nil
}
