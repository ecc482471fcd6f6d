package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/state"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <round-id>",
	Short: "Cancel a round",
	Long: `Mark a round cancelled.

A round being run by another process notices the terminal state and stops
scheduling further batches; results of in-flight work are discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	db, err := state.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	r, err := db.GetRound(args[0])
	if err != nil {
		return fmt.Errorf("load round: %w", err)
	}
	if r == nil {
		return fmt.Errorf("round %s not found", args[0])
	}
	if r.Status.Terminal() {
		return fmt.Errorf("round %s already %s", r.ID, r.Status)
	}

	r.Status = models.RoundCancelled
	r.Summary = "cancelled before completion"
	done := time.Now().UTC()
	r.CompletedAt = &done
	if err := db.UpdateRound(r); err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}

	fmt.Printf("Round %s cancelled\n", r.ID)
	return nil
}
