// Package config handles configuration loading and management for HiveCore.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for HiveCore.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Selection SelectionConfig `mapstructure:"selection"`
	Weights   WeightsConfig   `mapstructure:"weights"`
	Round     RoundConfig     `mapstructure:"round"`
	Registry  RegistryConfig  `mapstructure:"registry"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// SelectionConfig holds agent selection settings.
type SelectionConfig struct {
	// TopN is the ranked page size.
	TopN int `mapstructure:"top_n"`
	// RequirementWeight scales requirement fit against the static score.
	RequirementWeight float64 `mapstructure:"requirement_weight"`
	// MinFitThreshold rejects system picks whose fit falls below it.
	MinFitThreshold float64 `mapstructure:"min_fit_threshold"`
	// ColdStartQuota is how many cold-start agents per call get the trial bonus.
	ColdStartQuota int `mapstructure:"cold_start_quota"`
	// ColdStartBonus is added to quota-holding cold-start agents.
	ColdStartBonus float64 `mapstructure:"cold_start_bonus"`
	// ColdStartPenalty is subtracted from cold-start agents past the quota.
	ColdStartPenalty float64 `mapstructure:"cold_start_penalty"`
	// MultiAgent enables team composition via the strategy analyzer.
	MultiAgent bool `mapstructure:"multi_agent"`
	// AuditCapacity bounds the in-memory audit log.
	AuditCapacity int `mapstructure:"audit_capacity"`
}

// WeightsConfig holds the static score weights.
type WeightsConfig struct {
	Performance float64 `mapstructure:"performance"`
	Brand       float64 `mapstructure:"brand"`
	Recognition float64 `mapstructure:"recognition"`
	Fault       float64 `mapstructure:"fault"`
}

// RoundConfig holds round orchestration settings.
type RoundConfig struct {
	MaxInnerRounds     int           `mapstructure:"max_inner_rounds"`
	Parallel           bool          `mapstructure:"parallel"`
	WorkerLimit        int           `mapstructure:"worker_limit"`
	PassThreshold      float64       `mapstructure:"pass_threshold"`
	RoundTimeout       time.Duration `mapstructure:"round_timeout"`
	RequirementTimeout time.Duration `mapstructure:"requirement_timeout"`
	RetryAttempts      int           `mapstructure:"retry_attempts"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
}

// RegistryConfig holds agent registry settings.
type RegistryConfig struct {
	// Path is the YAML roster file. Empty uses the default under the
	// user data directory.
	Path string `mapstructure:"path"`
	// Watch enables hot reload of the roster file.
	Watch bool `mapstructure:"watch"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, HIVECORE_REGISTRY)
// 2. Project config (.hivecore.yaml in current directory or parent)
// 3. User config (~/.config/hivecore/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("registry.path", "HIVECORE_REGISTRY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("selection.top_n", cfg.Selection.TopN)
	v.Set("selection.requirement_weight", cfg.Selection.RequirementWeight)
	v.Set("selection.min_fit_threshold", cfg.Selection.MinFitThreshold)
	v.Set("selection.cold_start_quota", cfg.Selection.ColdStartQuota)
	v.Set("selection.cold_start_bonus", cfg.Selection.ColdStartBonus)
	v.Set("selection.cold_start_penalty", cfg.Selection.ColdStartPenalty)
	v.Set("selection.multi_agent", cfg.Selection.MultiAgent)
	v.Set("selection.audit_capacity", cfg.Selection.AuditCapacity)
	v.Set("weights.performance", cfg.Weights.Performance)
	v.Set("weights.brand", cfg.Weights.Brand)
	v.Set("weights.recognition", cfg.Weights.Recognition)
	v.Set("weights.fault", cfg.Weights.Fault)
	v.Set("round.max_inner_rounds", cfg.Round.MaxInnerRounds)
	v.Set("round.parallel", cfg.Round.Parallel)
	v.Set("round.worker_limit", cfg.Round.WorkerLimit)
	v.Set("round.pass_threshold", cfg.Round.PassThreshold)
	v.Set("round.round_timeout", cfg.Round.RoundTimeout.String())
	v.Set("round.requirement_timeout", cfg.Round.RequirementTimeout.String())
	v.Set("round.retry_attempts", cfg.Round.RetryAttempts)
	v.Set("round.retry_delay", cfg.Round.RetryDelay.String())
	v.Set("registry.path", cfg.Registry.Path)
	v.Set("registry.watch", cfg.Registry.Watch)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultRegistryPath returns the default roster location under the user
// data directory.
func DefaultRegistryPath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "hivecore", "agents.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "hivecore", "agents.yaml")
	}
	return filepath.Join(home, ".local", "share", "hivecore", "agents.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Selection defaults
	v.SetDefault("selection.top_n", 5)
	v.SetDefault("selection.requirement_weight", 1.0)
	v.SetDefault("selection.min_fit_threshold", 0.3)
	v.SetDefault("selection.cold_start_quota", 1)
	v.SetDefault("selection.cold_start_bonus", 0.05)
	v.SetDefault("selection.cold_start_penalty", 0.05)
	v.SetDefault("selection.multi_agent", false)
	v.SetDefault("selection.audit_capacity", 256)

	// Static weight defaults
	v.SetDefault("weights.performance", 0.4)
	v.SetDefault("weights.brand", 0.2)
	v.SetDefault("weights.recognition", 0.15)
	v.SetDefault("weights.fault", 0.25)

	// Round defaults
	v.SetDefault("round.max_inner_rounds", 3)
	v.SetDefault("round.parallel", true)
	v.SetDefault("round.worker_limit", 4)
	v.SetDefault("round.pass_threshold", 0.9)
	v.SetDefault("round.round_timeout", "2h")
	v.SetDefault("round.requirement_timeout", "30m")
	v.SetDefault("round.retry_attempts", 3)
	v.SetDefault("round.retry_delay", "2s")

	// Registry defaults
	v.SetDefault("registry.path", "")
	v.SetDefault("registry.watch", true)
}

// getUserConfigDir returns the XDG config directory for HiveCore.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hivecore")
	}

	// Fall back to ~/.config/hivecore
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "hivecore")
	}
	return filepath.Join(home, ".config", "hivecore")
}

// findProjectConfig searches for .hivecore.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".hivecore.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{},
		Selection: SelectionConfig{
			TopN:              5,
			RequirementWeight: 1.0,
			MinFitThreshold:   0.3,
			ColdStartQuota:    1,
			ColdStartBonus:    0.05,
			ColdStartPenalty:  0.05,
			AuditCapacity:     256,
		},
		Weights: WeightsConfig{
			Performance: 0.4,
			Brand:       0.2,
			Recognition: 0.15,
			Fault:       0.25,
		},
		Round: RoundConfig{
			MaxInnerRounds:     3,
			Parallel:           true,
			WorkerLimit:        4,
			PassThreshold:      0.9,
			RoundTimeout:       2 * time.Hour,
			RequirementTimeout: 30 * time.Minute,
			RetryAttempts:      3,
			RetryDelay:         2 * time.Second,
		},
		Registry: RegistryConfig{
			Watch: true,
		},
	}
}
