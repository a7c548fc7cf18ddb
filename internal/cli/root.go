package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-insight/internal/config"
	"options-insight/internal/engine"
	"options-insight/internal/fusion"
	"options-insight/internal/ideas"
	"options-insight/internal/logging"
	"options-insight/internal/marketdata"
	"options-insight/internal/ml"
	"options-insight/internal/rules"
	"options-insight/internal/store"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider marketdata.Provider
	Store    store.Store
	Engine   *engine.Engine
}

// NewRootCmd wires the application and creates the root command.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Provider: buildProvider(cfg, logger),
		Engine:   buildEngine(cfg, logger),
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "insight.db")
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, history features unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "insight",
		Short: "Options Insight - option chain analysis for Indian index options",
		Long: `Options Insight analyzes NSE index option chains and produces ranked,
explainable trading signals.

It combines chain analytics (PCR, max pain, OI distribution), a rule-based
analyzer, and an optional ML confidence layer into a single fused signal
with concrete trade ideas.

Without Kite credentials it runs on deterministic sample data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-insight)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newIdeasCmd(app))
	rootCmd.AddCommand(newHeatmapCmd(app))
	rootCmd.AddCommand(newTrendCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// buildProvider selects the market data source: live Kite wrapped with a
// sample fallback when credentials are present, pure sample otherwise.
func buildProvider(cfg *config.Config, logger zerolog.Logger) marketdata.Provider {
	sample := marketdata.NewSampleProvider(cfg.Provider.SampleSeed)
	if !cfg.IsLive() {
		logger.Debug().Msg("Using sample market data provider")
		return sample
	}

	kite := marketdata.NewKiteProvider(cfg.Credentials.Kite.APIKey, cfg.Credentials.Kite.AccessToken, logger)
	logger.Debug().Msg("Using Kite market data provider with sample fallback")
	return marketdata.NewFallbackProvider(kite, sample, logger)
}

// buildEngine assembles the analysis pipeline from configuration.
func buildEngine(cfg *config.Config, logger zerolog.Logger) *engine.Engine {
	var scorer ml.Scorer
	switch {
	case cfg.Engine.MLScorer == "openai" && cfg.Credentials.OpenAI.APIKey != "":
		scorer = ml.NewOpenAIScorer(cfg.Credentials.OpenAI.APIKey, cfg.Engine.MLModel)
	case cfg.Engine.MLScorer == "openai":
		// Configured but no key: the layer degrades instead of failing.
		logger.Warn().Msg("OpenAI scorer configured without API key, ML will degrade")
	default:
		scorer = ml.NewHeuristicScorer()
	}

	params := ideas.DefaultParams()
	params.MinConfidence = cfg.Engine.MinConfidence
	params.RewardMultiple = cfg.Engine.RewardMultiple
	params.RiskMultiple = cfg.Engine.RiskMultiple

	return engine.New(engine.Options{
		Evaluator: rules.NewEvaluator(),
		MLLayer:   ml.NewLayer(scorer, cfg.Engine.MLEnabled, cfg.Engine.MLTimeout, logger),
		Generator: ideas.NewGenerator(params),
		Weights:   fusion.Weights{Rule: cfg.Engine.RuleWeight, ML: cfg.Engine.MLWeight},
		Logger:    logger,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Options Insight v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine Configuration")
	output.Printf("  Rule Weight:     %.2f\n", cfg.Engine.RuleWeight)
	output.Printf("  ML Weight:       %.2f\n", cfg.Engine.MLWeight)
	output.Printf("  Min Confidence:  %.2f\n", cfg.Engine.MinConfidence)
	output.Printf("  Reward Multiple: %.1f\n", cfg.Engine.RewardMultiple)
	output.Printf("  Risk Multiple:   %.1f\n", cfg.Engine.RiskMultiple)
	output.Printf("  Idea Count:      %d\n", cfg.Engine.IdeaCount)
	output.Println()

	output.Bold("ML Configuration")
	output.Printf("  Enabled:         %v\n", cfg.Engine.MLEnabled)
	output.Printf("  Scorer:          %s\n", cfg.Engine.MLScorer)
	output.Printf("  Model:           %s\n", cfg.Engine.MLModel)
	output.Printf("  Timeout:         %s\n", cfg.Engine.MLTimeout)
	output.Println()

	output.Bold("Provider Configuration")
	output.Printf("  Source:          %s\n", cfg.Provider.Source)
	output.Printf("  Sample Seed:     %d\n", cfg.Provider.SampleSeed)
	output.Printf("  Timeout:         %s\n", cfg.Provider.Timeout)
	output.Printf("  Kite Key Set:    %v\n", cfg.Credentials.Kite.APIKey != "")
	output.Printf("  OpenAI Key Set:  %v\n", cfg.Credentials.OpenAI.APIKey != "")
}
