package cli

import (
	"fmt"

	"github.com/recordwise/aigate/pkg/guard"
	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/recordwise/aigate/pkg/tokens"
	"github.com/spf13/cobra"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate token counts and cost for a prompt without calling anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringP("provider", "p", "openai", "Provider name")
	estimateCmd.Flags().StringP("model", "m", "gpt-4o-mini", "Model name")
	estimateCmd.Flags().Int64P("output", "o", 500, "Expected output tokens")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, _ := cmd.Flags().GetString("provider")
	modelName, _ := cmd.Flags().GetString("model")
	expectedOutput, _ := cmd.Flags().GetInt64("output")

	inTok, outTok, err := tokens.EstimateCall(args[0], provider, modelName, expectedOutput)
	if err != nil {
		return fmt.Errorf("estimate tokens: %w", err)
	}

	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	g := guard.New(kvstore.NewNull(), table, guard.Limits{}, nil, logger)
	est := g.EstimateCost(modelName, provider, inTok, outTok)

	fmt.Printf("Input tokens:   %d\n", est.InputTokens)
	fmt.Printf("Output tokens:  %d (expected)\n", est.OutputTokens)
	fmt.Printf("Estimated cost: $%.6f\n", est.EstimatedCostUSD)
	if est.Approximate {
		fmt.Printf("Note: model not in pricing table, priced at the most expensive known model\n")
	}
	return nil
}
