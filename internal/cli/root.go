package cli

import (
	"log/slog"
	"os"

	"github.com/recordwise/aigate/internal/config"
	"github.com/recordwise/aigate/pkg/alerts"
	"github.com/recordwise/aigate/pkg/guard"
	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/recordwise/aigate/pkg/pricing"
	"github.com/recordwise/aigate/pkg/selector"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aigate",
	Short: "aigate - AI request governance: caching, daily budgets, model routing",
	Long: `aigate sits between business logic and paid AI providers. It caches
generated results with a TTL, enforces global and per-user daily spend
ceilings, routes each task to the cheapest model meeting its quality bar,
and paces outbound calls per provider.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.aigate/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStore creates the counter/cache store from config. A missing
// storage path degrades to the no-op store with a warning rather than
// failing, and ":memory:" selects the process-local LRU store.
func initStore(cfg *config.Config, logger *slog.Logger) (kvstore.Store, error) {
	switch cfg.Storage.Path {
	case "":
		logger.Warn("no storage path configured, caching and budget counters are disabled")
		return kvstore.NewNull(), nil
	case ":memory:":
		logger.Warn("using in-memory storage, daily counters will not survive restarts")
		return kvstore.NewMemory(cfg.Storage.CacheSize)
	default:
		return kvstore.NewSQLite(cfg.Storage.Path)
	}
}

// initPricing loads the pricing table from config or the embedded default.
func initPricing(cfg *config.Config) (*pricing.Table, error) {
	if cfg.Pricing.File == "" {
		return pricing.Default(), nil
	}
	return pricing.LoadFile(cfg.Pricing.File)
}

// initCatalog loads the model capability catalog.
func initCatalog(cfg *config.Config) (*selector.Catalog, error) {
	if cfg.Models.File == "" {
		return selector.DefaultCatalog(), nil
	}
	return selector.LoadCatalogFile(cfg.Models.File)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initGuard creates a fully wired cost guard.
func initGuard(cfg *config.Config, logger *slog.Logger) (*guard.CostGuard, kvstore.Store, error) {
	store, err := initStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	table, err := initPricing(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	limits := guard.Limits{
		GlobalDailyUSD:    cfg.Budget.GlobalDailyUSD,
		UserDailyUSD:      cfg.Budget.UserDailyUSD,
		AlertThresholdPct: cfg.Budget.AlertThresholdPct,
	}
	g := guard.New(store, table, limits, initNotifiers(cfg), logger)
	return g, store, nil
}
