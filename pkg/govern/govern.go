// Package govern is the entry point business logic calls instead of
// talking to providers directly. A governed call picks a model, consults
// the cache, and on a miss runs the admission-checked generate path:
// estimate cost, check the daily budget, call the provider through the
// paced retry client, record actual spend, cache the result.
package govern

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/recordwise/aigate/pkg/aiclient"
	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/guard"
	"github.com/recordwise/aigate/pkg/model"
	"github.com/recordwise/aigate/pkg/selector"
	"github.com/recordwise/aigate/pkg/tokens"
)

// Completer issues a completion call against a provider.
type Completer interface {
	Complete(ctx context.Context, provider, model, prompt string, maxTokens int) (*aiclient.Completion, error)
}

// Options tune facade-wide defaults.
type Options struct {
	CacheTTL        time.Duration // default 24h
	MaxOutputTokens int           // default 1024, also the pre-check output estimate
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 24 * time.Hour
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = 1024
	}
	return o
}

// Service runs governed AI calls. All collaborators are injected.
type Service struct {
	selector *selector.Selector
	cache    *cache.Service
	guard    *guard.CostGuard
	client   Completer
	opts     Options
	logger   *slog.Logger
}

// New creates the facade.
func New(sel *selector.Selector, cacheSvc *cache.Service, costGuard *guard.CostGuard, client Completer, opts Options, logger *slog.Logger) *Service {
	return &Service{
		selector: sel,
		cache:    cacheSvc,
		guard:    costGuard,
		client:   client,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Request describes one governed call.
type Request struct {
	TaskType     selector.TaskType
	QualityLevel selector.QualityLevel

	PrioritizeCost    bool
	PrioritizeQuality bool
	PrioritizeSpeed   bool

	// Namespace plus Key form the content-addressable cache identity.
	Namespace string
	Key       string
	Prompt    string

	// UserID scopes the per-user budget check. Empty means global only.
	UserID string

	// TTL overrides the facade default when positive.
	TTL time.Duration
}

// Response is the outcome of a governed call.
type Response struct {
	Text     string
	Model    string
	Provider string

	Cached bool
	Age    time.Duration

	// CostUSD is zero on cache hits; cached responses spend nothing.
	CostUSD      float64
	InputTokens  int64
	OutputTokens int64

	Selection selector.Selection
}

// payload is the cached representation of a generated response.
type payload struct {
	Text         string  `json:"text"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider"`
	CostUSD      float64 `json:"cost_usd"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
}

// EnrichRequest builds a governed-call request from an explicit
// enrichment record. Governance touches only the record's derived cache
// key and prompt text, never the whole business object.
func EnrichRequest(task selector.TaskType, quality selector.QualityLevel, namespace string, input model.EnrichmentInput, userID string) Request {
	return Request{
		TaskType:     task,
		QualityLevel: quality,
		Namespace:    namespace,
		Key:          input.CacheKey(),
		Prompt:       input.PromptText(),
		UserID:       userID,
	}
}

// Call executes one governed AI call. Budget denials surface as a
// *BudgetError the caller is expected to handle with a local fallback.
func (s *Service) Call(ctx context.Context, req Request) (*Response, error) {
	if req.Namespace == "" || req.Key == "" {
		return nil, fmt.Errorf("govern: namespace and key are required")
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("govern: prompt is required")
	}

	sel := s.selector.Select(selector.Request{
		TaskType:          req.TaskType,
		QualityLevel:      req.QualityLevel,
		PrioritizeCost:    req.PrioritizeCost,
		PrioritizeQuality: req.PrioritizeQuality,
		PrioritizeSpeed:   req.PrioritizeSpeed,
	})

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.opts.CacheTTL
	}

	result, err := s.cache.GetOrGenerate(ctx, req.Namespace, req.Key, ttl, func(ctx context.Context) ([]byte, error) {
		return s.generate(ctx, sel, req)
	})
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(result.Data, &p); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}

	resp := &Response{
		Text:      p.Text,
		Model:     p.Model,
		Provider:  p.Provider,
		Cached:    result.Cached,
		Age:       result.Age,
		Selection: sel,
	}
	if !result.Cached {
		resp.CostUSD = p.CostUSD
		resp.InputTokens = p.InputTokens
		resp.OutputTokens = p.OutputTokens
	}
	return resp, nil
}

// generate runs the uncached path: estimate, admission check, provider
// call, spend recording.
func (s *Service) generate(ctx context.Context, sel selector.Selection, req Request) ([]byte, error) {
	inTok, outTok, err := tokens.EstimateCall(req.Prompt, sel.Provider, sel.Model, int64(s.opts.MaxOutputTokens))
	if err != nil {
		return nil, fmt.Errorf("estimate tokens: %w", err)
	}
	estimate := s.guard.EstimateCost(sel.Model, sel.Provider, inTok, outTok)

	decision := s.guard.CheckCostLimit(ctx, estimate.EstimatedCostUSD, req.UserID)
	if !decision.Allowed {
		return nil, &BudgetError{Decision: decision, Estimate: estimate}
	}

	completion, err := s.client.Complete(ctx, sel.Provider, sel.Model, req.Prompt, s.opts.MaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", sel.Provider, err)
	}

	// Prefer metered usage from the response; fall back to the estimate
	// when the provider omitted it.
	actual := estimate
	if completion.InputTokens > 0 || completion.OutputTokens > 0 {
		actual = s.guard.EstimateCost(sel.Model, sel.Provider, completion.InputTokens, completion.OutputTokens)
	}

	if err := s.guard.RecordCost(ctx, actual.EstimatedCostUSD, sel.Provider, sel.Model, req.UserID); err != nil {
		s.logger.Warn("failed to record spend",
			"provider", sel.Provider,
			"model", sel.Model,
			"cost_usd", actual.EstimatedCostUSD,
			"error", err)
	}

	return json.Marshal(payload{
		Text:         completion.Text,
		Model:        sel.Model,
		Provider:     sel.Provider,
		CostUSD:      actual.EstimatedCostUSD,
		InputTokens:  actual.InputTokens,
		OutputTokens: actual.OutputTokens,
	})
}
