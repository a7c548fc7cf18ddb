package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-insight/internal/engine"
	"options-insight/internal/logging"
	"options-insight/internal/models"
	"options-insight/internal/store"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Run the full analysis pipeline for a symbol",
		Long: `Run the full analysis pipeline: fetch the option chain, compute chain
analytics, evaluate the rule engine and ML layer, fuse the signals, and
generate ranked trade ideas.

Each run is journaled; the previous snapshot for the symbol feeds the
OI-buildup comparison.`,
		Example: `  insight analyze NIFTY
  insight analyze BANKNIFTY --ideas 5
  insight analyze FINNIFTY --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			ideaCount, _ := cmd.Flags().GetInt("ideas")
			if ideaCount <= 0 {
				ideaCount = app.Config.Engine.IdeaCount
			}

			result, snap, err := app.runAnalysis(ctx, symbol, ideaCount)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			displayAnalytics(output, result.Analytics, snap.Source)
			output.Println()
			displaySignals(output, result)
			output.Println()
			displayIdeas(output, result.Ideas)
			return nil
		},
	}

	cmd.Flags().Int("ideas", 0, "number of trade ideas (default from config)")

	return cmd
}

// runAnalysis fetches a snapshot, runs the engine with the journaled prior,
// and persists the outcome. Persistence failures are logged, never fatal:
// the analysis result is still worth showing.
func (app *App) runAnalysis(ctx context.Context, symbol string, ideaCount int) (*engine.Result, *models.MarketSnapshot, error) {
	logger := logging.WithSymbol(app.Logger, symbol)

	snap, err := app.Provider.GetSnapshot(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}

	var prior *models.MarketSnapshot
	if app.Store != nil {
		prior, err = app.Store.GetPriorSnapshot(ctx, symbol, snap.Timestamp)
		if err != nil {
			logger.Warn().Err(err).Msg("Prior snapshot lookup failed")
			prior = nil
		}
	}

	result, err := app.Engine.Analyze(ctx, engine.AnalysisRequest{
		Snapshot:  snap,
		Prior:     prior,
		IdeaCount: ideaCount,
	})
	if err != nil {
		return nil, nil, err
	}

	logging.LogSignal(logger, symbol, string(result.Fused.Direction), result.Fused.Confidence, result.Fused.Explanation)
	for _, idea := range result.Ideas {
		logging.LogIdea(logger, symbol, idea.Rank, idea.Strike, string(idea.Type), idea.Entry, idea.Target, idea.StopLoss)
	}

	if app.Store != nil {
		app.persistRun(ctx, logger, snap, result)
	}

	return result, snap, nil
}

func (app *App) persistRun(ctx context.Context, logger zerolog.Logger, snap *models.MarketSnapshot, result *engine.Result) {
	if _, err := app.Store.SaveSnapshot(ctx, snap); err != nil {
		logger.Warn().Err(err).Msg("Snapshot journaling failed")
	}

	rec := &store.AnalysisRecord{
		Symbol:          snap.Symbol,
		Timestamp:       snap.Timestamp,
		SpotPrice:       snap.SpotPrice,
		PCR:             result.Analytics.PCR,
		PCRDefined:      result.Analytics.PCRDefined,
		MaxPainStrike:   result.Analytics.MaxPainStrike,
		RuleDirection:   result.Rule.Direction,
		RuleConfidence:  result.Rule.Confidence,
		MLDirection:     result.ML.Direction,
		MLConfidence:    result.ML.Confidence,
		MLDegraded:      result.ML.Degraded,
		FusedDirection:  result.Fused.Direction,
		FusedConfidence: result.Fused.Confidence,
		Explanation:     result.Fused.Explanation,
	}

	analysisID, err := app.Store.SaveAnalysis(ctx, rec)
	if err != nil {
		logger.Warn().Err(err).Msg("Analysis persistence failed")
		return
	}
	if err := app.Store.SaveIdeas(ctx, analysisID, result.Ideas); err != nil {
		logger.Warn().Err(err).Msg("Idea persistence failed")
	}
}

func displayAnalytics(output *Output, a *models.ChainAnalytics, source string) {
	output.Bold("Chain Analytics - %s", a.Symbol)
	output.Dim("  Source: %s  As of: %s", source, FormatDateTime(a.Timestamp))
	output.Println()

	output.Printf("  Spot:        %s\n", FormatIndianCurrency(a.SpotPrice))
	if a.PCRDefined {
		output.Printf("  PCR:         %s\n", FormatPCR(a.PCR))
	} else {
		output.Printf("  PCR:         %s\n", output.DimText("undefined (no call OI)"))
	}
	output.Printf("  Max Pain:    %.0f\n", a.MaxPainStrike)
	if a.HasSupport {
		output.Printf("  Support:     %.0f %s\n", a.Support, output.DimText("(max put OI below spot)"))
	} else {
		output.Printf("  Support:     %s\n", output.DimText("none"))
	}
	if a.HasResistance {
		output.Printf("  Resistance:  %.0f %s\n", a.Resistance, output.DimText("(max call OI above spot)"))
	} else {
		output.Printf("  Resistance:  %s\n", output.DimText("none"))
	}
	output.Printf("  Call OI:     %s   Put OI: %s\n", FormatOI(a.TotalCallOI), FormatOI(a.TotalPutOI))
}

func displaySignals(output *Output, result *engine.Result) {
	output.Bold("Signals")
	output.Printf("  Rules:  %s  %s\n", output.DirectionText(result.Rule.Direction), FormatConfidence(result.Rule.Confidence))
	if result.ML.Degraded {
		output.Printf("  ML:     %s\n", output.DimText("degraded (excluded from fusion)"))
	} else {
		output.Printf("  ML:     %s  %s  %s\n", output.DirectionText(result.ML.Direction),
			FormatConfidence(result.ML.Confidence), output.DimText("["+result.ML.Model+"]"))
	}
	output.Printf("  Fused:  %s  %s  %s\n", output.DirectionText(result.Fused.Direction),
		FormatConfidence(result.Fused.Confidence),
		output.DimText(fmt.Sprintf("(weights %.2f/%.2f)", result.Fused.RuleWeight, result.Fused.MLWeight)))

	output.Println()
	output.Bold("Explanation")
	for _, line := range result.Fused.Explanation {
		output.Printf("  • %s\n", line)
	}
}

func displayIdeas(output *Output, ideas []models.TradeIdea) {
	output.Bold("Trade Ideas")
	if len(ideas) == 0 {
		output.Dim("  No actionable ideas at current confidence.")
		return
	}

	table := NewTable(output, "#", "Strike", "Type", "Entry", "Target", "Stop", "R:R", "OI")
	for _, idea := range ideas {
		table.AddRow(
			fmt.Sprintf("%d", idea.Rank),
			FormatPrice(idea.Strike),
			string(idea.Type),
			FormatPrice(idea.Entry),
			FormatPrice(idea.Target),
			FormatPrice(idea.StopLoss),
			FormatRiskReward(idea.RiskReward),
			FormatOI(idea.OI),
		)
	}
	table.Render()

	output.Println()
	for _, idea := range ideas {
		output.Dim("  %d. %s", idea.Rank, idea.Rationale)
	}
}
