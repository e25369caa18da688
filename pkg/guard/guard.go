// Package guard enforces daily spend ceilings on metered AI calls.
// Enforcement is best-effort: counters are shared atomic increments, the
// check-then-record window is deliberately non-transactional, and an
// unreachable counter store fails open so the system keeps functioning.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recordwise/aigate/pkg/alerts"
	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/recordwise/aigate/pkg/model"
	"github.com/recordwise/aigate/pkg/pricing"
)

// counterRetention is how long daily counters outlive their last write.
const counterRetention = 7 * 24 * time.Hour

// Limits holds the configured daily ceilings.
type Limits struct {
	GlobalDailyUSD    float64
	UserDailyUSD      float64
	AlertThresholdPct float64 // warning level, percent of the global ceiling
}

// CostGuard tracks per-day spend and answers admission checks.
type CostGuard struct {
	store     kvstore.Store
	table     *pricing.Table
	limits    Limits
	notifiers []alerts.Notifier
	logger    *slog.Logger
}

// New creates a cost guard over the given counter store and pricing table.
func New(store kvstore.Store, table *pricing.Table, limits Limits, notifiers []alerts.Notifier, logger *slog.Logger) *CostGuard {
	if limits.AlertThresholdPct <= 0 {
		limits.AlertThresholdPct = 80
	}
	return &CostGuard{
		store:     store,
		table:     table,
		limits:    limits,
		notifiers: notifiers,
		logger:    logger,
	}
}

// EstimateCost projects the USD cost of a call from token counts. Models
// missing from the pricing table are priced at the most expensive known
// model's rates and flagged approximate.
func (g *CostGuard) EstimateCost(modelName, provider string, inputTokens, outputTokens int64) model.CostEstimate {
	p, ok := g.table.Lookup(modelName)
	approximate := false
	if !ok {
		p = g.table.MostExpensive()
		approximate = true
		g.logger.Debug("no pricing for model, using conservative fallback",
			"model", modelName, "fallback", p.Model)
	}
	if provider == "" {
		provider = p.Provider
	}

	cost := (float64(inputTokens)*p.InputPerKilo + float64(outputTokens)*p.OutputPerKilo) / 1000

	return model.CostEstimate{
		Provider:         provider,
		Model:            modelName,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		EstimatedCostUSD: cost,
		Approximate:      approximate,
	}
}

// CheckCostLimit decides whether an estimated spend is admissible today.
// The per-user ceiling is checked before the global one so a single
// caller gets an actionable, caller-specific denial. If the counter
// store is unreachable the check fails open.
func (g *CostGuard) CheckCostLimit(ctx context.Context, estimatedUSD float64, userID string) model.CostDecision {
	day := model.Today()

	globalCost, err := g.readCost(ctx, model.ScopeGlobal, day)
	if err != nil {
		g.logger.Warn("counter store unreachable, allowing request", "error", err)
		return model.CostDecision{Allowed: true, RemainingBudget: g.limits.GlobalDailyUSD}
	}

	var userCost float64
	if userID != "" {
		userCost, err = g.readCost(ctx, userID, day)
		if err != nil {
			g.logger.Warn("counter store unreachable, allowing request", "user", userID, "error", err)
			return model.CostDecision{Allowed: true, RemainingBudget: g.limits.GlobalDailyUSD}
		}

		if userCost+estimatedUSD > g.limits.UserDailyUSD {
			return model.CostDecision{
				Allowed:          false,
				LimitType:        model.LimitUser,
				CurrentDailyCost: userCost,
				RemainingBudget:  remaining(g.limits.UserDailyUSD, userCost),
				Reason: fmt.Sprintf("user daily limit reached: $%.2f of $%.2f spent, request needs $%.2f",
					userCost, g.limits.UserDailyUSD, estimatedUSD),
			}
		}
	}

	if globalCost+estimatedUSD > g.limits.GlobalDailyUSD {
		return model.CostDecision{
			Allowed:          false,
			LimitType:        model.LimitGlobal,
			CurrentDailyCost: globalCost,
			RemainingBudget:  remaining(g.limits.GlobalDailyUSD, globalCost),
			Reason: fmt.Sprintf("global daily limit reached: $%.2f of $%.2f spent, request needs $%.2f",
				globalCost, g.limits.GlobalDailyUSD, estimatedUSD),
		}
	}

	// Report headroom against whichever scope is tighter.
	headroom := remaining(g.limits.GlobalDailyUSD, globalCost)
	current := globalCost
	if userID != "" {
		if userHeadroom := remaining(g.limits.UserDailyUSD, userCost); userHeadroom < headroom {
			headroom = userHeadroom
			current = userCost
		}
	}

	return model.CostDecision{
		Allowed:          true,
		CurrentDailyCost: current,
		RemainingBudget:  headroom,
	}
}

// RecordCost adds actual spend to today's counters. Each increment is
// atomic in the store; the call is intentionally independent from
// CheckCostLimit (check, call, record — not a transaction).
func (g *CostGuard) RecordCost(ctx context.Context, actualUSD float64, provider, modelName, userID string) error {
	day := model.Today()

	globalTotal, err := g.store.IncrByFloat(ctx, costKey(model.ScopeGlobal, day), actualUSD, counterRetention)
	if err != nil {
		return fmt.Errorf("record global spend: %w", err)
	}
	if _, err := g.store.IncrByFloat(ctx, countKey(model.ScopeGlobal, day), 1, counterRetention); err != nil {
		return fmt.Errorf("record global request count: %w", err)
	}
	if provider != "" {
		if _, err := g.store.IncrByFloat(ctx, providerCostKey(provider, model.ScopeGlobal, day), actualUSD, counterRetention); err != nil {
			return fmt.Errorf("record provider spend: %w", err)
		}
	}

	if userID != "" {
		if _, err := g.store.IncrByFloat(ctx, costKey(userID, day), actualUSD, counterRetention); err != nil {
			return fmt.Errorf("record user spend: %w", err)
		}
		if _, err := g.store.IncrByFloat(ctx, countKey(userID, day), 1, counterRetention); err != nil {
			return fmt.Errorf("record user request count: %w", err)
		}
		if provider != "" {
			if _, err := g.store.IncrByFloat(ctx, providerCostKey(provider, userID, day), actualUSD, counterRetention); err != nil {
				return fmt.Errorf("record user provider spend: %w", err)
			}
		}
	}

	g.logger.Info("spend recorded",
		"event_id", uuid.NewString(),
		"provider", provider,
		"model", modelName,
		"user", userID,
		"cost_usd", actualUSD,
		"global_total_usd", globalTotal,
	)

	g.checkThresholds(ctx, day, globalTotal)
	return nil
}

// DailyCostSummary aggregates today's spend for a scope. An empty userID
// summarizes the global scope.
func (g *CostGuard) DailyCostSummary(ctx context.Context, userID string) (*model.DailyCostSummary, error) {
	scope := model.ScopeGlobal
	if userID != "" {
		scope = userID
	}
	day := model.Today()

	cost, err := g.readCost(ctx, scope, day)
	if err != nil {
		return nil, fmt.Errorf("read daily cost: %w", err)
	}
	count, _, err := g.store.GetFloat(ctx, countKey(scope, day))
	if err != nil {
		return nil, fmt.Errorf("read daily request count: %w", err)
	}

	breakdown := make(map[string]float64)
	for _, provider := range g.table.Providers() {
		sub, ok, err := g.store.GetFloat(ctx, providerCostKey(provider, scope, day))
		if err != nil {
			return nil, fmt.Errorf("read provider spend: %w", err)
		}
		if ok && sub > 0 {
			breakdown[provider] = sub
		}
	}

	return &model.DailyCostSummary{
		Scope:             scope,
		Date:              day,
		TotalCostUSD:      cost,
		RequestCount:      int64(count),
		ProviderBreakdown: breakdown,
	}, nil
}

// ResetDailyCosts zeroes today's counters for a scope. An empty userID
// resets the global scope.
func (g *CostGuard) ResetDailyCosts(ctx context.Context, userID string) error {
	scope := model.ScopeGlobal
	if userID != "" {
		scope = userID
	}
	day := model.Today()

	keys := []string{costKey(scope, day), countKey(scope, day)}
	for _, provider := range g.table.Providers() {
		keys = append(keys, providerCostKey(provider, scope, day))
	}
	for _, key := range keys {
		if err := g.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("reset %q: %w", key, err)
		}
	}

	g.logger.Info("daily costs reset", "scope", scope, "date", day)
	return nil
}

// Status reports utilization of the global daily ceiling. An unreachable
// store reports degraded.
func (g *CostGuard) Status(ctx context.Context) model.GuardStatus {
	cost, err := g.readCost(ctx, model.ScopeGlobal, model.Today())
	storeOK := err == nil
	if err != nil {
		g.logger.Warn("counter store unreachable", "error", err)
	}

	var utilization float64
	if g.limits.GlobalDailyUSD > 0 {
		utilization = cost / g.limits.GlobalDailyUSD
	}

	return model.GuardStatus{
		State:       model.StateForUtilization(utilization, storeOK),
		Utilization: utilization,
		StoreOK:     storeOK,
	}
}

// checkThresholds dispatches alerts when global utilization crosses the
// configured levels. Best-effort: notifier failures are only logged.
func (g *CostGuard) checkThresholds(ctx context.Context, day string, globalTotal float64) {
	if g.limits.GlobalDailyUSD <= 0 || len(g.notifiers) == 0 {
		return
	}

	pct := (globalTotal / g.limits.GlobalDailyUSD) * 100

	var level alerts.Level
	switch {
	case pct >= 100:
		level = alerts.LevelExceeded
	case pct >= 95:
		level = alerts.LevelCritical
	case pct >= g.limits.AlertThresholdPct:
		level = alerts.LevelWarning
	default:
		return
	}

	alert := alerts.Alert{
		Level:        level,
		Scope:        model.ScopeGlobal,
		Date:         day,
		LimitUSD:     g.limits.GlobalDailyUSD,
		CurrentSpend: globalTotal,
		Utilization:  globalTotal / g.limits.GlobalDailyUSD,
		Message: fmt.Sprintf("daily spend at %.1f%% ($%.2f / $%.2f)",
			pct, globalTotal, g.limits.GlobalDailyUSD),
	}

	g.logger.Warn("spend threshold crossed",
		"level", level,
		"pct", pct,
		"spend", globalTotal,
		"limit", g.limits.GlobalDailyUSD,
	)

	for _, notifier := range g.notifiers {
		if err := notifier.Send(ctx, alert); err != nil {
			g.logger.Error("send alert failed", "notifier", notifier.Name(), "error", err)
		}
	}
}

func (g *CostGuard) readCost(ctx context.Context, scope, day string) (float64, error) {
	cost, _, err := g.store.GetFloat(ctx, costKey(scope, day))
	return cost, err
}

func remaining(limit, spent float64) float64 {
	if spent >= limit {
		return 0
	}
	return limit - spent
}

// Counter key schema: scope is "global" or a user ID, day is YYYY-MM-DD.
func costKey(scope, day string) string { return "cost:" + scope + ":" + day }

func countKey(scope, day string) string { return "count:" + scope + ":" + day }

func providerCostKey(provider, scope, day string) string {
	return "cost:" + provider + ":" + scope + ":" + day
}
