// Package config provides configuration management for the insight engine.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "options-insight/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Engine      EngineConfig   `mapstructure:"engine"`
	Provider    ProviderConfig `mapstructure:"provider"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// EngineConfig is the configuration surface consumed by the analysis engine.
type EngineConfig struct {
	RuleWeight     float64       `mapstructure:"rule_weight"`
	MLWeight       float64       `mapstructure:"ml_weight"`
	MinConfidence  float64       `mapstructure:"min_confidence"`
	RewardMultiple float64       `mapstructure:"reward_multiple"` // target = entry × (1 + reward×risk_fraction)
	RiskMultiple   float64       `mapstructure:"risk_multiple"`
	MLEnabled      bool          `mapstructure:"ml_enabled"`
	MLScorer       string        `mapstructure:"ml_scorer"` // "heuristic", "openai"
	MLModel        string        `mapstructure:"ml_model"`  // openai model name
	MLTimeout      time.Duration `mapstructure:"ml_timeout"`
	IdeaCount      int           `mapstructure:"idea_count"`
}

// ProviderConfig holds market data provider configuration.
type ProviderConfig struct {
	Source     string        `mapstructure:"source"` // "kite", "sample"
	SampleSeed int64         `mapstructure:"sample_seed"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	Kite   KiteCredentials   `mapstructure:"kite"`
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// KiteCredentials holds Zerodha Kite Connect API credentials.
type KiteCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	AccessToken string `mapstructure:"access_token"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RuleWeight:     0.6,
		MLWeight:       0.4,
		MinConfidence:  0.5,
		RewardMultiple: 2.0,
		RiskMultiple:   1.0,
		MLEnabled:      true,
		MLScorer:       "heuristic",
		MLModel:        "gpt-4o-mini",
		MLTimeout:      10 * time.Second,
		IdeaCount:      3,
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-insight"
	}
	return filepath.Join(home, ".config", "options-insight")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := DefaultEngineConfig()
	v.SetDefault("engine.rule_weight", def.RuleWeight)
	v.SetDefault("engine.ml_weight", def.MLWeight)
	v.SetDefault("engine.min_confidence", def.MinConfidence)
	v.SetDefault("engine.reward_multiple", def.RewardMultiple)
	v.SetDefault("engine.risk_multiple", def.RiskMultiple)
	v.SetDefault("engine.ml_enabled", def.MLEnabled)
	v.SetDefault("engine.ml_scorer", def.MLScorer)
	v.SetDefault("engine.ml_model", def.MLModel)
	v.SetDefault("engine.ml_timeout", def.MLTimeout)
	v.SetDefault("engine.idea_count", def.IdeaCount)
	v.SetDefault("provider.source", "sample")
	v.SetDefault("provider.sample_seed", 42)
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, defaults apply
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Credentials.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_API_SECRET"); v != "" {
		cfg.Credentials.Kite.APISecret = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Kite.AccessToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("INSIGHT_PROVIDER"); v != "" {
		cfg.Provider.Source = v
	}
}

// Validate validates the configuration. Fusion weights that do not sum to
// one are renormalized here, at configuration time; genuinely unusable
// values are rejected.
func (c *Config) Validate() error {
	e := &c.Engine

	if e.RuleWeight < 0 || e.MLWeight < 0 {
		return apperrors.NewConfigError("engine.weights", fmt.Sprintf("%.2f/%.2f", e.RuleWeight, e.MLWeight), "weights must be non-negative")
	}
	sum := e.RuleWeight + e.MLWeight
	if sum == 0 {
		return apperrors.NewConfigError("engine.weights", sum, "rule and ml weight cannot both be zero")
	}
	if math.Abs(sum-1.0) > 1e-9 {
		e.RuleWeight /= sum
		e.MLWeight /= sum
	}

	if e.MinConfidence < 0 || e.MinConfidence > 1 {
		return apperrors.NewConfigError("engine.min_confidence", e.MinConfidence, "must be in [0,1]")
	}
	if e.RewardMultiple <= 0 {
		return apperrors.NewConfigError("engine.reward_multiple", e.RewardMultiple, "must be positive")
	}
	if e.RiskMultiple <= 0 {
		return apperrors.NewConfigError("engine.risk_multiple", e.RiskMultiple, "must be positive")
	}
	if e.MLTimeout <= 0 {
		return apperrors.NewConfigError("engine.ml_timeout", e.MLTimeout, "must be positive")
	}
	if e.IdeaCount <= 0 {
		return apperrors.NewConfigError("engine.idea_count", e.IdeaCount, "must be positive")
	}
	if e.MLScorer != "heuristic" && e.MLScorer != "openai" {
		return apperrors.NewConfigError("engine.ml_scorer", e.MLScorer, "must be 'heuristic' or 'openai'")
	}

	if c.Provider.Source != "sample" && c.Provider.Source != "kite" {
		return apperrors.NewConfigError("provider.source", c.Provider.Source, "must be 'sample' or 'kite'")
	}
	if c.Provider.Timeout <= 0 {
		return apperrors.NewConfigError("provider.timeout", c.Provider.Timeout, "must be positive")
	}

	return nil
}

// IsLive returns true when the live Kite provider is configured.
func (c *Config) IsLive() bool {
	return c.Provider.Source == "kite" && c.Credentials.Kite.APIKey != ""
}
