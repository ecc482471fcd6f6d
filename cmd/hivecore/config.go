package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify HiveCore configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/hivecore/config.yaml
Project-specific overrides can be placed in .hivecore.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orDash(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("selection.top_n: %d\n", cfg.Selection.TopN)
	fmt.Printf("selection.requirement_weight: %g\n", cfg.Selection.RequirementWeight)
	fmt.Printf("selection.min_fit_threshold: %g\n", cfg.Selection.MinFitThreshold)
	fmt.Printf("selection.cold_start_quota: %d\n", cfg.Selection.ColdStartQuota)
	fmt.Printf("selection.multi_agent: %t\n", cfg.Selection.MultiAgent)
	fmt.Printf("weights.performance: %g\n", cfg.Weights.Performance)
	fmt.Printf("weights.brand: %g\n", cfg.Weights.Brand)
	fmt.Printf("weights.recognition: %g\n", cfg.Weights.Recognition)
	fmt.Printf("weights.fault: %g\n", cfg.Weights.Fault)
	fmt.Printf("round.max_inner_rounds: %d\n", cfg.Round.MaxInnerRounds)
	fmt.Printf("round.parallel: %t\n", cfg.Round.Parallel)
	fmt.Printf("round.worker_limit: %d\n", cfg.Round.WorkerLimit)
	fmt.Printf("round.pass_threshold: %g\n", cfg.Round.PassThreshold)
	fmt.Printf("round.round_timeout: %s\n", cfg.Round.RoundTimeout)
	fmt.Printf("round.requirement_timeout: %s\n", cfg.Round.RequirementTimeout)
	fmt.Printf("registry.path: %s\n", orDash(cfg.Registry.Path))
	fmt.Printf("registry.watch: %t\n", cfg.Registry.Watch)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orDash(cfg.Anthropic.Model), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "selection.top_n":
		return strconv.Itoa(cfg.Selection.TopN), nil
	case "selection.requirement_weight":
		return strconv.FormatFloat(cfg.Selection.RequirementWeight, 'g', -1, 64), nil
	case "selection.min_fit_threshold":
		return strconv.FormatFloat(cfg.Selection.MinFitThreshold, 'g', -1, 64), nil
	case "selection.cold_start_quota":
		return strconv.Itoa(cfg.Selection.ColdStartQuota), nil
	case "selection.multi_agent":
		return strconv.FormatBool(cfg.Selection.MultiAgent), nil
	case "weights.performance":
		return strconv.FormatFloat(cfg.Weights.Performance, 'g', -1, 64), nil
	case "weights.brand":
		return strconv.FormatFloat(cfg.Weights.Brand, 'g', -1, 64), nil
	case "weights.recognition":
		return strconv.FormatFloat(cfg.Weights.Recognition, 'g', -1, 64), nil
	case "weights.fault":
		return strconv.FormatFloat(cfg.Weights.Fault, 'g', -1, 64), nil
	case "round.max_inner_rounds":
		return strconv.Itoa(cfg.Round.MaxInnerRounds), nil
	case "round.parallel":
		return strconv.FormatBool(cfg.Round.Parallel), nil
	case "round.worker_limit":
		return strconv.Itoa(cfg.Round.WorkerLimit), nil
	case "round.pass_threshold":
		return strconv.FormatFloat(cfg.Round.PassThreshold, 'g', -1, 64), nil
	case "round.round_timeout":
		return cfg.Round.RoundTimeout.String(), nil
	case "round.requirement_timeout":
		return cfg.Round.RequirementTimeout.String(), nil
	case "registry.path":
		return orDash(cfg.Registry.Path), nil
	case "registry.watch":
		return strconv.FormatBool(cfg.Registry.Watch), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "selection.top_n":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for top_n: %w", err)
		}
		cfg.Selection.TopN = n
	case "selection.requirement_weight":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for requirement_weight: %w", err)
		}
		cfg.Selection.RequirementWeight = f
	case "selection.min_fit_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for min_fit_threshold: %w", err)
		}
		cfg.Selection.MinFitThreshold = f
	case "selection.cold_start_quota":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cold_start_quota: %w", err)
		}
		cfg.Selection.ColdStartQuota = n
	case "selection.multi_agent":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for multi_agent: %w", err)
		}
		cfg.Selection.MultiAgent = b
	case "weights.performance":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for weights.performance: %w", err)
		}
		cfg.Weights.Performance = f
	case "weights.brand":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for weights.brand: %w", err)
		}
		cfg.Weights.Brand = f
	case "weights.recognition":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for weights.recognition: %w", err)
		}
		cfg.Weights.Recognition = f
	case "weights.fault":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for weights.fault: %w", err)
		}
		cfg.Weights.Fault = f
	case "round.max_inner_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_inner_rounds: %w", err)
		}
		cfg.Round.MaxInnerRounds = n
	case "round.parallel":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for round.parallel: %w", err)
		}
		cfg.Round.Parallel = b
	case "round.worker_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for worker_limit: %w", err)
		}
		cfg.Round.WorkerLimit = n
	case "round.pass_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for pass_threshold: %w", err)
		}
		cfg.Round.PassThreshold = f
	case "round.round_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for round_timeout: %w", err)
		}
		cfg.Round.RoundTimeout = d
	case "round.requirement_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for requirement_timeout: %w", err)
		}
		cfg.Round.RequirementTimeout = d
	case "registry.path":
		cfg.Registry.Path = value
	case "registry.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for registry.watch: %w", err)
		}
		cfg.Registry.Watch = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
