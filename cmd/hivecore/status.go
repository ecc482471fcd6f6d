package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/state"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

var statusProject string

var statusCmd = &cobra.Command{
	Use:   "status [round-id]",
	Short: "Show round status",
	Long: `Display the state of execution rounds for this project.

Without arguments, shows the active round (or the most recent one) and
its per-requirement executions. With a round ID, shows that round.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusProject, "project", "", "Project ID (defaults to the working directory name)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No rounds yet. Run 'hivecore run <spec.yaml>' to start.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	projectID := statusProject
	if projectID == "" {
		projectID = filepath.Base(cwd)
	}

	var r *models.ExecutionRound
	if len(args) == 1 {
		r, err = db.GetRound(args[0])
		if err != nil {
			return fmt.Errorf("load round: %w", err)
		}
		if r == nil {
			return fmt.Errorf("round %s not found", args[0])
		}
	} else {
		r, err = db.ActiveRound(projectID)
		if err != nil {
			return fmt.Errorf("find active round: %w", err)
		}
		if r == nil {
			rounds, lerr := db.ListRounds(projectID)
			if lerr != nil {
				return fmt.Errorf("list rounds: %w", lerr)
			}
			if len(rounds) == 0 {
				fmt.Println("No rounds yet. Run 'hivecore run <spec.yaml>' to start.")
				return nil
			}
			r = &rounds[0]
		}
	}

	displayRound(r)

	execs, err := db.ListExecutions(r.ID)
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}
	displayExecutions(execs)

	return displayRecentRounds(db, projectID, r.ID)
}

func displayRound(r *models.ExecutionRound) {
	fmt.Printf("Round %s (#%d, project %s)\n", r.ID, r.RoundNumber, r.ProjectID)
	fmt.Printf("  Status: %s\n", colorStatus(string(r.Status)))
	fmt.Printf("  Started: %s ago\n", formatDuration(time.Since(r.StartedAt)))
	if r.Status == models.RoundRunning {
		fmt.Printf("  Inner round: %d of %d\n", r.CurrentInnerRound, r.Options.MaxInnerRounds)
	} else {
		fmt.Printf("  Inner rounds: %d\n", r.TotalInnerRounds)
	}
	if r.Summary != "" {
		fmt.Printf("  Summary: %s\n", r.Summary)
	}
	if r.Error != "" {
		fmt.Printf("  Error: %s\n", r.Error)
	}
	fmt.Printf("  Tokens: %d  Cost: $%.4f  LLM calls: %d\n", r.TokensUsed, r.Cost, r.LLMCalls)
}

func displayExecutions(execs []models.RequirementExecution) {
	if len(execs) == 0 {
		return
	}

	fmt.Println("\nExecutions:")
	for _, e := range execs {
		verdict := ""
		if e.Status == models.ExecCompleted {
			if e.Passed {
				verdict = color.GreenString(" passed (%.0f%%)", e.PassRate*100)
			} else {
				verdict = color.YellowString(" below threshold (%.0f%%)", e.PassRate*100)
			}
		}
		agent := ""
		if e.AgentID != "" {
			agent = " agent=" + e.AgentID
		}
		fmt.Printf("  [%d.%d] %-14s %s%s%s\n", e.InnerRound, e.Attempt, e.RequirementID, colorStatus(string(e.Status)), agent, verdict)
		if e.Error != "" && e.Status == models.ExecFailed {
			fmt.Printf("        %s\n", color.RedString(e.Error))
		}
	}
}

func displayRecentRounds(db *state.DB, projectID, skipID string) error {
	rounds, err := db.ListRounds(projectID)
	if err != nil {
		return fmt.Errorf("list rounds: %w", err)
	}

	shown := 0
	for i := range rounds {
		r := &rounds[i]
		if r.ID == skipID {
			continue
		}
		if shown == 0 {
			fmt.Println("\nRecent rounds:")
		}
		fmt.Printf("  #%d %s %s  passed %d, failed %d\n", r.RoundNumber, r.ID, colorStatus(string(r.Status)), r.PassedRequirements, r.FailedRequirements)
		shown++
		if shown == 5 {
			break
		}
	}
	return nil
}

func colorStatus(status string) string {
	switch status {
	case "completed":
		return color.GreenString(status)
	case "running", "scheduled":
		return color.CyanString(status)
	case "failed":
		return color.RedString(status)
	case "cancelled":
		return color.YellowString(status)
	default:
		return status
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
