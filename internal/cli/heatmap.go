package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-insight/internal/analytics"
	"options-insight/internal/models"
)

const heatmapBarWidth = 30

func newHeatmapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatmap <symbol>",
		Short: "Display the OI distribution heatmap",
		Long: `Display per-strike open interest as horizontal bars: put OI builds
support below spot, call OI builds resistance above. Bars are scaled to
the heaviest strike in the chain.`,
		Example: `  insight heatmap NIFTY
  insight heatmap BANKNIFTY --volume`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			byVolume, _ := cmd.Flags().GetBool("volume")

			snap, err := app.Provider.GetSnapshot(ctx, symbol)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}

			chain, err := analytics.Compute(snap)
			if err != nil {
				output.Error("Analytics failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chain.Distribution)
			}

			displayHeatmap(output, chain, byVolume)
			return nil
		},
	}

	cmd.Flags().Bool("volume", false, "scale bars by traded volume instead of OI")

	return cmd
}

func displayHeatmap(output *Output, chain *models.ChainAnalytics, byVolume bool) {
	metric := "OI"
	if byVolume {
		metric = "Volume"
	}

	output.Bold("%s Heatmap - %s", metric, chain.Symbol)
	output.Dim("  Spot: %s  Max Pain: %.0f", FormatIndianCurrency(chain.SpotPrice), chain.MaxPainStrike)
	output.Println()

	var max int64 = 1
	for _, row := range chain.Distribution {
		call, put := rowValues(row, byVolume)
		if call > max {
			max = call
		}
		if put > max {
			max = put
		}
	}

	for _, row := range chain.Distribution {
		call, put := rowValues(row, byVolume)

		marker := " "
		switch {
		case chain.HasSupport && row.Strike == chain.Support:
			marker = output.Green("S")
		case chain.HasResistance && row.Strike == chain.Resistance:
			marker = output.Red("R")
		case row.Strike == chain.MaxPainStrike:
			marker = output.Yellow("P")
		}

		output.Printf("  %8.0f %s  %s %s\n", row.Strike, marker,
			output.Red(bar(call, max)+" CE "+FormatOI(call)),
			output.Green(bar(put, max)+" PE "+FormatOI(put)))
	}

	output.Println()
	output.Dim("  S support  R resistance  P max pain")
}

func rowValues(row models.StrikeRow, byVolume bool) (int64, int64) {
	if byVolume {
		return row.CallVolume, row.PutVolume
	}
	return row.CallOI, row.PutOI
}

// bar renders a fixed-budget horizontal bar scaled against max.
func bar(value, max int64) string {
	filled := int(float64(value) / float64(max) * heatmapBarWidth)
	if filled > heatmapBarWidth {
		filled = heatmapBarWidth
	}
	if value > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", heatmapBarWidth-filled)
}
