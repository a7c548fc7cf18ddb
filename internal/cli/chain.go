package cli

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-insight/internal/models"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Display the option chain",
		Long: `Display the option chain for a symbol: per-strike call and put LTP,
volume, OI, and IV around the at-the-money strike.`,
		Example: `  insight chain NIFTY
  insight chain BANKNIFTY --strikes 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			strikes, _ := cmd.Flags().GetInt("strikes")

			snap, err := app.Provider.GetSnapshot(ctx, symbol)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(snap)
			}

			displayChain(output, snap, strikes)
			return nil
		},
	}

	cmd.Flags().Int("strikes", 10, "number of strikes to show each side of ATM")

	return cmd
}

func displayChain(output *Output, snap *models.MarketSnapshot, around int) {
	output.Bold("Option Chain - %s", snap.Symbol)
	output.Dim("  Source: %s  Spot: %s  As of: %s", snap.Source, FormatIndianCurrency(snap.SpotPrice), FormatDateTime(snap.Timestamp))
	output.Println()

	strikes := snap.Strikes()
	atm := atmStrike(strikes, snap.SpotPrice)

	table := NewTable(output, "Call OI", "Call Vol", "Call LTP", "Strike", "Put LTP", "Put Vol", "Put OI")
	for _, strike := range strikes {
		if around > 0 && math.Abs(strike-atm) > float64(around)*snap.StrikeStep() {
			continue
		}

		strikeStr := FormatPrice(strike)
		if strike == atm {
			strikeStr = output.BoldText(strikeStr)
		}

		call := snap.Leg(strike, models.OptionCall)
		put := snap.Leg(strike, models.OptionPut)

		table.AddRow(
			legOI(call), legVolume(call), legLTP(call),
			strikeStr,
			legLTP(put), legVolume(put), legOI(put),
		)
	}
	table.Render()
}

// atmStrike returns the listed strike closest to spot.
func atmStrike(strikes []float64, spot float64) float64 {
	if len(strikes) == 0 {
		return spot
	}
	best := strikes[0]
	for _, s := range strikes[1:] {
		if math.Abs(s-spot) < math.Abs(best-spot) {
			best = s
		}
	}
	return best
}

func legOI(leg *models.OptionLeg) string {
	if leg == nil {
		return "-"
	}
	return FormatOI(leg.OI)
}

func legVolume(leg *models.OptionLeg) string {
	if leg == nil {
		return "-"
	}
	return FormatVolume(leg.Volume)
}

func legLTP(leg *models.OptionLeg) string {
	if leg == nil {
		return "-"
	}
	return FormatPrice(leg.LTP)
}
