package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "options-insight/internal/errors"
)

func TestLoadDefaultsWhenNoFiles(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := DefaultEngineConfig()
	if cfg.Engine.RuleWeight != def.RuleWeight || cfg.Engine.MLWeight != def.MLWeight {
		t.Errorf("weights = %v/%v, want defaults %v/%v",
			cfg.Engine.RuleWeight, cfg.Engine.MLWeight, def.RuleWeight, def.MLWeight)
	}
	if cfg.Engine.MLScorer != "heuristic" {
		t.Errorf("MLScorer = %q, want heuristic", cfg.Engine.MLScorer)
	}
	if cfg.Provider.Source != "sample" {
		t.Errorf("Source = %q, want sample", cfg.Provider.Source)
	}
	if cfg.Provider.SampleSeed != 42 {
		t.Errorf("SampleSeed = %d, want 42", cfg.Provider.SampleSeed)
	}
	if cfg.IsLive() {
		t.Error("defaults must not be live")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[engine]
min_confidence = 0.7
idea_count = 5
ml_enabled = false

[provider]
source = "sample"
sample_seed = 7
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %v, want 0.7", cfg.Engine.MinConfidence)
	}
	if cfg.Engine.IdeaCount != 5 {
		t.Errorf("IdeaCount = %d, want 5", cfg.Engine.IdeaCount)
	}
	if cfg.Engine.MLEnabled {
		t.Error("MLEnabled = true, want false from file")
	}
	if cfg.Provider.SampleSeed != 7 {
		t.Errorf("SampleSeed = %d, want 7", cfg.Provider.SampleSeed)
	}
	// Values the file omits keep their defaults.
	if cfg.Engine.RewardMultiple != 2.0 {
		t.Errorf("RewardMultiple = %v, want default 2.0", cfg.Engine.RewardMultiple)
	}
}

func TestValidateRenormalizesWeights(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Engine.RuleWeight = 3
	cfg.Engine.MLWeight = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if math.Abs(cfg.Engine.RuleWeight-0.75) > 1e-9 || math.Abs(cfg.Engine.MLWeight-0.25) > 1e-9 {
		t.Errorf("weights = %v/%v, want renormalized 0.75/0.25",
			cfg.Engine.RuleWeight, cfg.Engine.MLWeight)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.Engine.RuleWeight = -0.5 }},
		{"both weights zero", func(c *Config) { c.Engine.RuleWeight = 0; c.Engine.MLWeight = 0 }},
		{"confidence above one", func(c *Config) { c.Engine.MinConfidence = 1.5 }},
		{"zero reward", func(c *Config) { c.Engine.RewardMultiple = 0 }},
		{"zero risk", func(c *Config) { c.Engine.RiskMultiple = 0 }},
		{"zero ml timeout", func(c *Config) { c.Engine.MLTimeout = 0 }},
		{"zero idea count", func(c *Config) { c.Engine.IdeaCount = 0 }},
		{"unknown scorer", func(c *Config) { c.Engine.MLScorer = "oracle" }},
		{"unknown provider", func(c *Config) { c.Provider.Source = "bloomberg" }},
		{"zero provider timeout", func(c *Config) { c.Provider.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !apperrors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("Validate = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KITE_API_KEY", "key-from-env")
	t.Setenv("KITE_ACCESS_TOKEN", "token-from-env")
	t.Setenv("OPENAI_API_KEY", "openai-from-env")
	t.Setenv("INSIGHT_PROVIDER", "kite")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Credentials.Kite.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want env override", cfg.Credentials.Kite.APIKey)
	}
	if cfg.Credentials.Kite.AccessToken != "token-from-env" {
		t.Errorf("AccessToken = %q, want env override", cfg.Credentials.Kite.AccessToken)
	}
	if cfg.Credentials.OpenAI.APIKey != "openai-from-env" {
		t.Errorf("OpenAI key = %q, want env override", cfg.Credentials.OpenAI.APIKey)
	}
	if cfg.Provider.Source != "kite" {
		t.Errorf("Source = %q, want kite from env", cfg.Provider.Source)
	}
	if !cfg.IsLive() {
		t.Error("kite source with an API key must report live")
	}
}

func TestLoadCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[kite]
api_key = "file-key"
access_token = "file-token"

[openai]
api_key = "file-openai"
`
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Credentials.Kite.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.Credentials.Kite.APIKey)
	}
	if cfg.Credentials.OpenAI.APIKey != "file-openai" {
		t.Errorf("OpenAI key = %q, want file-openai", cfg.Credentials.OpenAI.APIKey)
	}
}

func defaultTestConfig() *Config {
	return &Config{
		Engine: DefaultEngineConfig(),
		Provider: ProviderConfig{
			Source:     "sample",
			SampleSeed: 42,
			Timeout:    15 * time.Second,
		},
	}
}
