package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-insight/internal/analytics"
	"options-insight/internal/models"
)

func newTrendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend <symbol>",
		Short: "Analyze the underlying's price trend",
		Long: `Analyze the underlying index trend from daily candles: SMA 20/50
positioning, RSI, and a resulting recommendation.`,
		Example: `  insight trend NIFTY
  insight trend BANKNIFTY --days 90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			days, _ := cmd.Flags().GetInt("days")

			candles, err := app.Provider.GetHistory(ctx, symbol, days)
			if err != nil {
				output.Error("Failed to get history: %v", err)
				return err
			}

			trend, err := analytics.AnalyzeTrend(symbol, candles)
			if err != nil {
				output.Error("Trend analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trend)
			}

			displayTrend(output, trend)
			return nil
		},
	}

	cmd.Flags().Int("days", 60, "days of history to analyze")

	return cmd
}

func displayTrend(output *Output, trend *models.TrendAnalysis) {
	output.Bold("Trend Analysis - %s", trend.Symbol)
	output.Println()

	output.Printf("  Price:     %s\n", FormatIndianCurrency(trend.CurrentPrice))
	output.Printf("  Direction: %s\n", output.DirectionText(trend.Direction))
	output.Printf("  Strength:  %s\n", trend.Strength)
	output.Printf("  RSI(14):   %.1f%s\n", trend.RSI, rsiNote(output, trend.RSI))
	output.Printf("  SMA 20:    %s\n", FormatIndianCurrency(trend.SMA20))
	output.Printf("  SMA 50:    %s\n", FormatIndianCurrency(trend.SMA50))
	output.Println()
	output.Printf("  Recommendation: %s\n", output.BoldText(trend.Recommendation))
}

func rsiNote(output *Output, rsi float64) string {
	switch {
	case rsi >= 70:
		return output.Red(" (overbought)")
	case rsi <= 30:
		return output.Green(" (oversold)")
	}
	return ""
}
