package alerts

import "context"

// Level indicates the severity of a spend alert.
type Level string

const (
	LevelWarning  Level = "warning"  // Approaching the daily ceiling
	LevelCritical Level = "critical" // At or near the daily ceiling
	LevelExceeded Level = "exceeded" // Daily ceiling exceeded
)

// Alert represents a daily-budget threshold notification.
type Alert struct {
	Level        Level   `json:"level"`
	Scope        string  `json:"scope"`
	Date         string  `json:"date"`
	LimitUSD     float64 `json:"limit_usd"`
	CurrentSpend float64 `json:"current_spend"`
	Utilization  float64 `json:"utilization"`
	Message      string  `json:"message"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
