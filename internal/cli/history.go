package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-insight/internal/models"
	"options-insight/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [symbol]",
		Short: "Show past analysis runs",
		Long: `Show journaled analysis runs: the analytics summary and fused signal
of each run, newest first. Filter by symbol, direction, or age.`,
		Example: `  insight history
  insight history NIFTY --limit 10
  insight history --direction BULLISH --days 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("History store unavailable")
				return fmt.Errorf("store not initialized")
			}

			limit, _ := cmd.Flags().GetInt("limit")
			direction, _ := cmd.Flags().GetString("direction")
			days, _ := cmd.Flags().GetInt("days")

			filter := store.AnalysisFilter{
				Direction: models.Direction(strings.ToUpper(direction)),
				Limit:     limit,
			}
			if len(args) == 1 {
				filter.Symbol = strings.ToUpper(args[0])
			}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}

			records, err := app.Store.GetAnalyses(ctx, filter)
			if err != nil {
				output.Error("History query failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}

			displayHistory(output, records)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "maximum records to show")
	cmd.Flags().String("direction", "", "filter by fused direction (BULLISH, BEARISH, NEUTRAL)")
	cmd.Flags().Int("days", 0, "only records from the last N days")

	return cmd
}

func displayHistory(output *Output, records []store.AnalysisRecord) {
	output.Bold("Analysis History")
	if len(records) == 0 {
		output.Dim("  No analysis runs recorded.")
		return
	}
	output.Println()

	table := NewTable(output, "When", "Symbol", "Spot", "PCR", "Max Pain", "Rules", "ML", "Fused", "Conf")
	for _, rec := range records {
		pcr := "-"
		if rec.PCRDefined {
			pcr = FormatPCR(rec.PCR)
		}

		mlCol := output.DirectionText(rec.MLDirection)
		if rec.MLDegraded {
			mlCol = output.DimText("degraded")
		}

		table.AddRow(
			FormatDateTime(rec.Timestamp),
			rec.Symbol,
			FormatPrice(rec.SpotPrice),
			pcr,
			FormatPrice(rec.MaxPainStrike),
			output.DirectionText(rec.RuleDirection),
			mlCol,
			output.DirectionText(rec.FusedDirection),
			FormatConfidence(rec.FusedConfidence),
		)
	}
	table.Render()
}
