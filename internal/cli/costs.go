package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Inspect and manage daily spend counters",
}

var costsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show today's spend against the daily ceilings",
	RunE:  runCostsSummary,
}

var costsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset today's counters for a scope",
	RunE:  runCostsReset,
}

func init() {
	rootCmd.AddCommand(costsCmd)
	costsCmd.AddCommand(costsSummaryCmd)
	costsCmd.AddCommand(costsResetCmd)

	costsSummaryCmd.Flags().StringP("user", "u", "", "Per-user scope (default: global)")
	costsResetCmd.Flags().StringP("user", "u", "", "Per-user scope (default: global)")
}

func runCostsSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")

	logger := newLogger(cfg)
	g, store, err := initGuard(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := g.DailyCostSummary(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("read daily costs: %w", err)
	}

	limit := cfg.Budget.GlobalDailyUSD
	if userID != "" {
		limit = cfg.Budget.UserDailyUSD
	}

	fmt.Printf("=== Daily Spend (%s, %s) ===\n", summary.Scope, summary.Date)
	fmt.Printf("Total Cost:     $%.4f of $%.2f\n", summary.TotalCostUSD, limit)
	fmt.Printf("Requests:       %d\n", summary.RequestCount)

	if len(summary.ProviderBreakdown) > 0 {
		fmt.Printf("\nBy Provider:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  PROVIDER\tCOST\n")
		for name, cost := range summary.ProviderBreakdown {
			fmt.Fprintf(w, "  %s\t$%.4f\n", name, cost)
		}
		w.Flush()
	}

	return nil
}

func runCostsReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")

	logger := newLogger(cfg)
	g, store, err := initGuard(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := g.ResetDailyCosts(cmd.Context(), userID); err != nil {
		return fmt.Errorf("reset daily costs: %w", err)
	}

	scope := "global"
	if userID != "" {
		scope = userID
	}
	fmt.Printf("Reset today's counters for scope %q\n", scope)
	return nil
}
