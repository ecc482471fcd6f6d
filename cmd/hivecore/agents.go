package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage the agent registry",
	Long: `Inspect and edit the agent roster.

The roster is a YAML file (registry.path in the config, or the default
under the user data directory). Running rounds pick up edits to the file
without a restart.`,
}

var agentsAll bool

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		agents := reg.List(!agentsAll)
		if len(agents) == 0 {
			fmt.Println("No agents registered. Use 'hivecore agents register' to add one.")
			return nil
		}

		now := time.Now()
		for _, a := range agents {
			state := color.GreenString("active")
			if !a.Active {
				state = color.YellowString("inactive")
			}
			if a.ColdStart {
				state = color.CyanString("cold-start")
			}
			fmt.Printf("%-12s %-20s %s\n", a.AgentID, a.Name, state)
			fmt.Printf("  role: %s  perf: %.2f  brand: %.2f  recognition: %.2f  active faults: %d\n",
				orDash(a.Role), a.Static.Performance, a.Static.Brand, a.Static.Recognition, a.ActiveFaults(now))
			if len(a.Capabilities.Skills) > 0 {
				fmt.Printf("  skills: %s\n", strings.Join(a.Capabilities.Skills, ", "))
			}
		}
		return nil
	},
}

var (
	registerName        string
	registerRole        string
	registerSkills      []string
	registerTools       []string
	registerDomains     []string
	registerPerformance float64
	registerBrand       float64
	registerRecognition float64
)

var agentsRegisterCmd = &cobra.Command{
	Use:   "register <agent-id>",
	Short: "Register a new agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		profile := &models.AgentProfile{
			AgentID: args[0],
			Name:    registerName,
			Role:    registerRole,
			Capabilities: models.AgentCapabilities{
				Skills:  registerSkills,
				Tools:   registerTools,
				Domains: registerDomains,
			},
			Static: models.StaticScore{
				Performance: registerPerformance,
				Brand:       registerBrand,
				Recognition: registerRecognition,
			},
		}
		if profile.Name == "" {
			profile.Name = args[0]
		}

		if err := reg.Register(profile); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("save registry: %w", err)
		}

		fmt.Printf("Registered agent %s (cold start)\n", args[0])
		return nil
	},
}

var agentsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <agent-id>",
	Short: "Deactivate an agent without deleting its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		if err := reg.Deactivate(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("save registry: %w", err)
		}

		fmt.Printf("Deactivated agent %s\n", args[0])
		return nil
	},
}

var (
	faultSeverity string
	faultCooling  int
	faultReason   string
)

var agentsFaultCmd = &cobra.Command{
	Use:   "fault <agent-id>",
	Short: "Record a fault against an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		rec := models.FaultRecord{
			Severity:    models.FaultSeverity(faultSeverity),
			OccurredAt:  time.Now().UTC(),
			CoolingDays: faultCooling,
			Reason:      faultReason,
		}
		if err := reg.RecordFault(args[0], rec); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("save registry: %w", err)
		}

		fmt.Printf("Recorded %s fault for agent %s (%d day cooling)\n", faultSeverity, args[0], faultCooling)
		return nil
	},
}

var agentsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the roster file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path := cfg.Registry.Path
		if path == "" {
			path = config.DefaultRegistryPath()
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	agentsListCmd.Flags().BoolVar(&agentsAll, "all", false, "Include deactivated agents")

	agentsRegisterCmd.Flags().StringVar(&registerName, "name", "", "Human-readable agent name")
	agentsRegisterCmd.Flags().StringVar(&registerRole, "role", "", "Primary role (backend, frontend, qa, ...)")
	agentsRegisterCmd.Flags().StringSliceVar(&registerSkills, "skills", nil, "Declared skills")
	agentsRegisterCmd.Flags().StringSliceVar(&registerTools, "tools", nil, "Operated tools")
	agentsRegisterCmd.Flags().StringSliceVar(&registerDomains, "domains", nil, "Domain expertise")
	agentsRegisterCmd.Flags().Float64Var(&registerPerformance, "performance", 0.5, "Performance score in [0,1]")
	agentsRegisterCmd.Flags().Float64Var(&registerBrand, "brand", 0.5, "Brand score in [0,1]")
	agentsRegisterCmd.Flags().Float64Var(&registerRecognition, "recognition", 0.5, "Recognition score in [0,1]")

	agentsFaultCmd.Flags().StringVar(&faultSeverity, "severity", "minor", "Fault severity (critical, major, minor, notice)")
	agentsFaultCmd.Flags().IntVar(&faultCooling, "cooling", 7, "Cooling window in days")
	agentsFaultCmd.Flags().StringVar(&faultReason, "reason", "", "What went wrong")

	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsRegisterCmd)
	agentsCmd.AddCommand(agentsDeactivateCmd)
	agentsCmd.AddCommand(agentsFaultCmd)
	agentsCmd.AddCommand(agentsPathCmd)
}

func loadRegistry() (*registry.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openRegistry(cfg)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
