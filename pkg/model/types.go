package model

import (
	"strings"
	"time"
)

// ScopeGlobal is the shared spend scope covering every caller.
const ScopeGlobal = "global"

// CostEstimate is the projected price of a prospective provider call.
// It is an ephemeral value object, never persisted.
type CostEstimate struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	// Approximate is set when the model had no pricing entry and the
	// most expensive known model's rates were substituted.
	Approximate bool `json:"approximate,omitempty"`
}

// LimitType identifies which ceiling produced a budget denial.
type LimitType string

const (
	LimitUser   LimitType = "user"
	LimitGlobal LimitType = "global"
)

// CostDecision is the structured result of an admission check.
// A denial is a value, not an error; callers choose their fallback.
type CostDecision struct {
	Allowed          bool      `json:"allowed"`
	Reason           string    `json:"reason,omitempty"`
	LimitType        LimitType `json:"limit_type,omitempty"`
	CurrentDailyCost float64   `json:"current_daily_cost"`
	RemainingBudget  float64   `json:"remaining_budget"`
}

// DailyCostSummary aggregates a scope's spend for the current day.
type DailyCostSummary struct {
	Scope             string             `json:"scope"`
	Date              string             `json:"date"`
	TotalCostUSD      float64            `json:"total_cost_usd"`
	RequestCount      int64              `json:"request_count"`
	ProviderBreakdown map[string]float64 `json:"provider_breakdown,omitempty"`
}

// GuardState describes the cost guard's health.
type GuardState string

const (
	StateHealthy  GuardState = "healthy"
	StateDegraded GuardState = "degraded"
	StateCritical GuardState = "critical"
)

// GuardStatus reports utilization of the global daily ceiling.
type GuardStatus struct {
	State       GuardState `json:"status"`
	Utilization float64    `json:"utilization"`
	StoreOK     bool       `json:"store_ok"`
}

// StateForUtilization maps global budget utilization (0..1) to a state.
func StateForUtilization(utilization float64, storeOK bool) GuardState {
	switch {
	case !storeOK:
		return StateDegraded
	case utilization >= 0.9:
		return StateCritical
	case utilization >= 0.7:
		return StateDegraded
	default:
		return StateHealthy
	}
}

// CacheMetrics holds in-process hit/miss counters for one namespace.
type CacheMetrics struct {
	Namespace string  `json:"namespace"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
}

// EnrichmentInput is the explicit input record for governed enrichment
// calls. All fields are optional; governance components consume it only
// through CacheKey and PromptText, never the full business object.
type EnrichmentInput struct {
	Name     string   `json:"name,omitempty"`
	OneLiner string   `json:"one_liner,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// CacheKey derives a deterministic content key from the populated fields.
func (in EnrichmentInput) CacheKey() string {
	parts := []string{in.Name, in.OneLiner}
	parts = append(parts, in.Tags...)
	return strings.Join(parts, "|")
}

// PromptText renders the record as prompt material for token estimation
// and provider calls.
func (in EnrichmentInput) PromptText() string {
	var b strings.Builder
	if in.Name != "" {
		b.WriteString(in.Name)
	}
	if in.OneLiner != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(in.OneLiner)
	}
	if len(in.Tags) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("[" + strings.Join(in.Tags, ", ") + "]")
	}
	return b.String()
}

// DayKey formats a time as the calendar-day component of counter keys.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Today returns the current calendar day in counter-key form.
func Today() string {
	return DayKey(time.Now())
}
