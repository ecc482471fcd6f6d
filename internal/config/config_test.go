package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Selection.TopN != 5 {
		t.Errorf("expected default top_n 5, got %d", cfg.Selection.TopN)
	}

	if cfg.Selection.MinFitThreshold != 0.3 {
		t.Errorf("expected default min_fit_threshold 0.3, got %v", cfg.Selection.MinFitThreshold)
	}

	if cfg.Selection.ColdStartQuota != 1 {
		t.Errorf("expected default cold_start_quota 1, got %d", cfg.Selection.ColdStartQuota)
	}

	if cfg.Weights.Performance != 0.4 || cfg.Weights.Brand != 0.2 ||
		cfg.Weights.Recognition != 0.15 || cfg.Weights.Fault != 0.25 {
		t.Errorf("unexpected default weights: %+v", cfg.Weights)
	}

	if cfg.Round.MaxInnerRounds != 3 {
		t.Errorf("expected default max_inner_rounds 3, got %d", cfg.Round.MaxInnerRounds)
	}

	if cfg.Round.PassThreshold != 0.9 {
		t.Errorf("expected default pass_threshold 0.9, got %v", cfg.Round.PassThreshold)
	}

	if cfg.Round.RequirementTimeout != 30*time.Minute {
		t.Errorf("expected requirement timeout 30m, got %v", cfg.Round.RequirementTimeout)
	}

	if !cfg.Registry.Watch {
		t.Error("expected registry.watch to default to true")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
anthropic:
  api_key: sk-ant-test-key-1234567890
  model: claude-sonnet-4-20250514
selection:
  top_n: 10
  multi_agent: true
weights:
  performance: 0.5
  brand: 0.2
  recognition: 0.1
  fault: 0.2
round:
  max_inner_rounds: 5
  parallel: false
  requirement_timeout: 10m
registry:
  path: /tmp/agents.yaml
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-test-key-1234567890" {
		t.Errorf("api_key = %q", cfg.Anthropic.APIKey)
	}

	if cfg.Selection.TopN != 10 {
		t.Errorf("top_n = %d, want 10", cfg.Selection.TopN)
	}

	if !cfg.Selection.MultiAgent {
		t.Error("expected multi_agent true")
	}

	if cfg.Weights.Performance != 0.5 {
		t.Errorf("weights.performance = %v, want 0.5", cfg.Weights.Performance)
	}

	if cfg.Round.MaxInnerRounds != 5 {
		t.Errorf("max_inner_rounds = %d, want 5", cfg.Round.MaxInnerRounds)
	}

	if cfg.Round.Parallel {
		t.Error("expected parallel false")
	}

	if cfg.Round.RequirementTimeout != 10*time.Minute {
		t.Errorf("requirement_timeout = %v, want 10m", cfg.Round.RequirementTimeout)
	}

	if cfg.Registry.Path != "/tmp/agents.yaml" {
		t.Errorf("registry.path = %q", cfg.Registry.Path)
	}

	// Unset fields fall back to defaults
	if cfg.Selection.MinFitThreshold != 0.3 {
		t.Errorf("min_fit_threshold = %v, want default 0.3", cfg.Selection.MinFitThreshold)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	t.Setenv("HIVECORE_TEST_KEY", "sk-ant-from-env-1234567890")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := "anthropic:\n  api_key: ${HIVECORE_TEST_KEY}\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-from-env-1234567890" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Anthropic.APIKey)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Selection.TopN = 7
	cfg.Round.MaxInnerRounds = 4

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if loaded.Selection.TopN != 7 {
		t.Errorf("top_n = %d, want 7", loaded.Selection.TopN)
	}

	if loaded.Round.MaxInnerRounds != 4 {
		t.Errorf("max_inner_rounds = %d, want 4", loaded.Round.MaxInnerRounds)
	}
}

func TestDefaultRegistryPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	want := filepath.Join("/custom/data", "hivecore", "agents.yaml")
	if got := DefaultRegistryPath(); got != want {
		t.Errorf("DefaultRegistryPath() = %q, want %q", got, want)
	}
}
