package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newIdeasCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideas <symbol>",
		Short: "Generate ranked trade ideas",
		Long: `Run the analysis pipeline and show only the resulting trade ideas:
direction-consistent option legs with entry, target, stop-loss, and
risk-reward, ranked by anchor proximity and liquidity.`,
		Example: `  insight ideas NIFTY
  insight ideas BANKNIFTY --count 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			count, _ := cmd.Flags().GetInt("count")
			if count <= 0 {
				count = app.Config.Engine.IdeaCount
			}

			result, _, err := app.runAnalysis(ctx, symbol, count)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result.Ideas)
			}

			output.Printf("Signal: %s %s\n\n", output.DirectionText(result.Fused.Direction), FormatConfidence(result.Fused.Confidence))
			displayIdeas(output, result.Ideas)
			return nil
		},
	}

	cmd.Flags().Int("count", 0, "number of ideas (default from config)")

	return cmd
}
