package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all aigate configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Budget    BudgetConfig    `mapstructure:"budget"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Models    ModelsConfig    `mapstructure:"models"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines counter/cache store settings. An empty path
// selects the in-memory store.
type StorageConfig struct {
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

// ServerConfig defines status API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// BudgetConfig defines daily spend ceilings in USD.
type BudgetConfig struct {
	GlobalDailyUSD    float64 `mapstructure:"global_daily_usd"`
	UserDailyUSD      float64 `mapstructure:"user_daily_usd"`
	AlertThresholdPct float64 `mapstructure:"alert_threshold_pct"`
}

// CacheConfig defines response cache settings.
type CacheConfig struct {
	DefaultTTL string `mapstructure:"default_ttl"`
}

// RateLimitConfig defines per-provider request pacing.
type RateLimitConfig struct {
	PerMinute int                      `mapstructure:"per_minute"`
	PerHour   int                      `mapstructure:"per_hour"`
	Providers map[string]ProviderLimit `mapstructure:"providers"`
}

// ProviderLimit overrides the default ceilings for one provider.
type ProviderLimit struct {
	PerMinute int `mapstructure:"per_minute"`
	PerHour   int `mapstructure:"per_hour"`
}

// RetryConfig defines outbound retry behavior.
type RetryConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelay   string `mapstructure:"base_delay"`
	MaxDelay    string `mapstructure:"max_delay"`
}

// ProvidersConfig maps provider names to endpoints.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	Perplexity ProviderConfig `mapstructure:"perplexity"`
}

// ProviderConfig defines one provider endpoint.
type ProviderConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// PricingConfig defines pricing table settings. An empty file uses the
// embedded default table.
type PricingConfig struct {
	File string `mapstructure:"file"`
}

// ModelsConfig defines the model capability catalog. An empty file uses
// the embedded default catalog.
type ModelsConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".aigate"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".aigate", "aigate.db"))
	v.SetDefault("storage.cache_size", 4096)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("budget.global_daily_usd", 100.0)
	v.SetDefault("budget.user_daily_usd", 10.0)
	v.SetDefault("budget.alert_threshold_pct", 80.0)
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("rate_limit.per_minute", 20)
	v.SetDefault("rate_limit.per_hour", 500)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("providers.openai.url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("providers.anthropic.url", "https://api.anthropic.com/v1/messages")
	v.SetDefault("providers.perplexity.url", "https://api.perplexity.ai/chat/completions")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("alerts.slack.channel", "#ai-spend")

	// Environment variables
	v.SetEnvPrefix("AIGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy deployment variable names, kept as aliases for the nested keys.
	bindAlias(v, "budget.global_daily_usd", "MAX_DAILY_API_COST_USD")
	bindAlias(v, "budget.user_daily_usd", "MAX_USER_DAILY_COST_USD")
	bindAlias(v, "providers.openai.api_key", "OPENAI_API_KEY")
	bindAlias(v, "providers.anthropic.api_key", "ANTHROPIC_API_KEY")
	bindAlias(v, "providers.perplexity.api_key", "PERPLEXITY_API_KEY")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Budget.GlobalDailyUSD < 0 || cfg.Budget.UserDailyUSD < 0 {
		return nil, fmt.Errorf("budget limits must be non-negative")
	}

	return &cfg, nil
}

func bindAlias(v *viper.Viper, key, env string) {
	// BindEnv only errors on empty arguments.
	_ = v.BindEnv(key, "AIGATE_"+env, env)
}

// Duration parses s, returning fallback when s is empty or invalid.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
