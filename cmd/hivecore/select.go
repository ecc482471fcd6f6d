package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/selection"
)

var (
	selectJSON     bool
	selectBatch    int
	selectOverride string
	selectAudit    bool
)

var selectCmd = &cobra.Command{
	Use:   "select <spec.yaml>",
	Short: "Rank agents for each requirement without executing",
	Long: `Run agent selection for every requirement in a spec and show the
ranked candidates, fit breakdowns and the system pick.

Useful for checking who would get the work before starting a round, and
for paging past the first candidates with --batch.

Examples:
  hivecore select spec.yaml                     # ranked picks per requirement
  hivecore select spec.yaml --batch 1           # second candidate page
  hivecore select spec.yaml --override agent-7  # force a pick, if ranked
  hivecore select spec.yaml --json | jq .`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "Output in JSON format")
	selectCmd.Flags().IntVar(&selectBatch, "batch", 0, "Candidate page to rank (0-based)")
	selectCmd.Flags().StringVar(&selectOverride, "override", "", "Override the system pick with this agent")
	selectCmd.Flags().BoolVar(&selectAudit, "audit", false, "Print the audit trail after selecting")
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	spec, err := decompose.NewFileDecomposer(args[0]).Decompose(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	candidates := reg.List(true)
	if len(candidates) == 0 {
		return fmt.Errorf("no active agents registered")
	}

	selector := buildSelector(cfg)

	var decisions []*selection.Decision
	for i := range spec.Requirements {
		req := &spec.Requirements[i]
		decision, err := selector.Select(req.Requirement(), candidates, selectBatch, selection.SelectOptions{
			RequirementID: req.ID,
			Override:      selectOverride,
		})
		if err != nil {
			return fmt.Errorf("select for %s: %w", req.ID, err)
		}
		decisions = append(decisions, decision)
	}

	if selectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if selectAudit {
			return enc.Encode(selector.Audit().Recent(0))
		}
		return enc.Encode(decisions)
	}

	for _, d := range decisions {
		printDecision(d)
	}
	if selectAudit {
		printAuditTrail(selector)
	}
	return nil
}

func printDecision(d *selection.Decision) {
	fmt.Printf("%s (page %d):\n", d.RequirementID, d.BatchIndex)

	if d.Empty() {
		color.Yellow("  no eligible candidate; spawn a new agent spec")
		return
	}

	for i, r := range d.Ranked {
		marker := "   "
		if r.AgentID == d.SelectedAgentID {
			marker = " > "
		}
		line := fmt.Sprintf("%s%d. %-12s combined %.3f  s_base %.3f  fit %.3f  faults %d",
			marker, i+1, r.AgentID, r.Combined, r.SBase, r.Fit.Score, r.ActiveFaults)
		if r.ColdStartReserved {
			line += "  (cold-start slot)"
		}
		if r.AgentID == d.SelectedAgentID {
			color.Green(line)
		} else {
			fmt.Println(line)
		}
		if missing := r.Fit.Missing(); len(missing) > 0 {
			fmt.Printf("      missing: %s\n", strings.Join(missing, ", "))
		}
	}

	if !d.Selected() {
		color.Yellow("  best fit below threshold; spawn a new agent spec")
	} else if d.Source == selection.SourceUser {
		fmt.Printf("  pick: %s (user override)\n", d.SelectedAgentID)
	}
	fmt.Println()
}

func printAuditTrail(selector *selection.Selector) {
	rounds := selector.Audit().Recent(0)
	fmt.Printf("Audit trail (%d rounds):\n", len(rounds))
	for _, rd := range rounds {
		pick := rd.SelectedAgentID
		if pick == "" {
			pick = "(none)"
		}
		fmt.Printf("  %s  %-14s page %d  pick %s  source %s\n",
			rd.Timestamp.Format("15:04:05"), rd.RequirementID, rd.BatchIndex, pick, rd.Source)
	}
}
