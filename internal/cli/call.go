package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recordwise/aigate/internal/config"
	"github.com/recordwise/aigate/pkg/aiclient"
	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/govern"
	"github.com/recordwise/aigate/pkg/limiter"
	"github.com/recordwise/aigate/pkg/selector"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call [prompt]",
	Short: "Run one governed AI call through the full pipeline",
	Long: `Run a single prompt through model selection, the response cache,
budget admission, rate limiting, and the provider call. Intended for
smoke-testing a deployment's configuration and budgets.`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringP("task", "t", "classification", "Task type")
	callCmd.Flags().StringP("quality", "q", "basic", "Quality level")
	callCmd.Flags().StringP("user", "u", "", "Per-user budget scope")
	callCmd.Flags().String("namespace", "cli", "Cache namespace")
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	task, _ := cmd.Flags().GetString("task")
	quality, _ := cmd.Flags().GetString("quality")
	userID, _ := cmd.Flags().GetString("user")
	namespace, _ := cmd.Flags().GetString("namespace")

	logger := newLogger(cfg)

	g, store, err := initGuard(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := initCatalog(cfg)
	if err != nil {
		return err
	}
	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	svc := govern.New(
		selector.New(catalog, table),
		cache.NewService(store, logger),
		g,
		initCompletionClient(cfg, logger),
		govern.Options{CacheTTL: config.Duration(cfg.Cache.DefaultTTL, 24*time.Hour)},
		logger,
	)

	req := govern.Request{
		TaskType:     selector.TaskType(task),
		QualityLevel: selector.QualityLevel(quality),
		Namespace:    namespace,
		Key:          args[0],
		Prompt:       args[0],
		UserID:       userID,
	}

	resp, err := svc.Call(cmd.Context(), req)
	var be *govern.BudgetError
	if errors.As(err, &be) {
		return fmt.Errorf("denied: %s", be.Decision.Reason)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Model:  %s (%s)\n", resp.Model, resp.Provider)
	if resp.Cached {
		fmt.Printf("Cached: yes (age %s)\n", resp.Age.Round(time.Second))
	} else {
		fmt.Printf("Cached: no ($%.6f, %d in / %d out tokens)\n",
			resp.CostUSD, resp.InputTokens, resp.OutputTokens)
	}
	fmt.Printf("\n%s\n", resp.Text)
	return nil
}

// initLimiter builds the per-provider rate limiter from config.
func initLimiter(cfg *config.Config) *limiter.Limiter {
	overrides := make(map[string]limiter.Limits, len(cfg.RateLimit.Providers))
	for name, l := range cfg.RateLimit.Providers {
		overrides[name] = limiter.Limits{PerMinute: l.PerMinute, PerHour: l.PerHour}
	}
	return limiter.New(limiter.Config{
		Defaults: limiter.Limits{
			PerMinute: cfg.RateLimit.PerMinute,
			PerHour:   cfg.RateLimit.PerHour,
		},
		Providers: overrides,
	})
}

// initCompletionClient builds the paced, retrying provider client.
func initCompletionClient(cfg *config.Config, logger *slog.Logger) *aiclient.CompletionClient {
	retry := aiclient.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   config.Duration(cfg.Retry.BaseDelay, time.Second),
		MaxDelay:    config.Duration(cfg.Retry.MaxDelay, 30*time.Second),
	}

	endpoints := map[string]aiclient.Endpoint{
		"openai":     {URL: cfg.Providers.OpenAI.URL, APIKey: cfg.Providers.OpenAI.APIKey},
		"anthropic":  {URL: cfg.Providers.Anthropic.URL, APIKey: cfg.Providers.Anthropic.APIKey},
		"perplexity": {URL: cfg.Providers.Perplexity.URL, APIKey: cfg.Providers.Perplexity.APIKey},
	}

	client := aiclient.New(nil, initLimiter(cfg), retry, logger)
	return aiclient.NewCompletionClient(client, endpoints)
}
