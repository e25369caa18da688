package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/recordwise/aigate/pkg/selector"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model capability catalog and routing",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models with capability and pricing data",
	RunE:  runModelsList,
}

var modelsSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Dry-run model selection for a task",
	RunE:  runModelsSelect,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsSelectCmd)

	modelsSelectCmd.Flags().StringP("task", "t", "", "Task type (classification, extraction, summarization, analysis, research)")
	modelsSelectCmd.Flags().StringP("quality", "q", "basic", "Quality level (basic, standard, premium)")
	modelsSelectCmd.Flags().String("prioritize", "", "Bias one axis (cost, quality, speed)")
	_ = modelsSelectCmd.MarkFlagRequired("task")
}

func runModelsList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	catalog, err := initCatalog(cfg)
	if err != nil {
		return err
	}
	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MODEL\tPROVIDER\tQUALITY\tSPEED\tMAX COMPLEXITY\tIN $/1K\tOUT $/1K\tTASKS\n")
	for _, m := range catalog.Models {
		inPrice, outPrice := "-", "-"
		if p, ok := table.Lookup(m.Model); ok {
			inPrice = fmt.Sprintf("%.4f", p.InputPerKilo)
			outPrice = fmt.Sprintf("%.4f", p.OutputPerKilo)
		}

		tasks := make([]string, len(m.SuitableTasks))
		for i, task := range m.SuitableTasks {
			tasks[i] = string(task)
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			m.Model, m.Provider,
			m.QualityScore, m.SpeedScore, m.MaxComplexity,
			inPrice, outPrice,
			strings.Join(tasks, ","),
		)
	}
	return w.Flush()
}

func runModelsSelect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	task, _ := cmd.Flags().GetString("task")
	quality, _ := cmd.Flags().GetString("quality")
	prioritize, _ := cmd.Flags().GetString("prioritize")

	catalog, err := initCatalog(cfg)
	if err != nil {
		return err
	}
	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	req := selector.Request{
		TaskType:     selector.TaskType(task),
		QualityLevel: selector.QualityLevel(quality),
	}
	switch prioritize {
	case "":
	case "cost":
		req.PrioritizeCost = true
	case "quality":
		req.PrioritizeQuality = true
	case "speed":
		req.PrioritizeSpeed = true
	default:
		return fmt.Errorf("unknown prioritize axis %q", prioritize)
	}

	selection := selector.New(catalog, table).Select(req)

	fmt.Printf("Model:     %s (%s)\n", selection.Model, selection.Provider)
	fmt.Printf("Score:     %.2f\n", selection.Score)
	if selection.Fallback {
		fmt.Printf("Fallback:  no candidate met the task requirements\n")
	}
	fmt.Printf("Reasoning: %s\n", selection.Reasoning)
	if len(selection.Alternatives) > 0 {
		fmt.Printf("Also considered: %s\n", strings.Join(selection.Alternatives, ", "))
	}
	return nil
}
