// Package selector picks the cheapest model satisfying a task's quality
// floor and complexity ceiling. Selection is a pure function of static
// configuration plus the request: no I/O, no shared mutable state.
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recordwise/aigate/pkg/pricing"
)

// Selector scores candidates from a capability catalog against a
// pricing table.
type Selector struct {
	catalog *Catalog
	table   *pricing.Table
}

// New creates a selector over the given catalog and pricing table.
func New(catalog *Catalog, table *pricing.Table) *Selector {
	return &Selector{catalog: catalog, table: table}
}

// Catalog returns the capability matrix backing this selector.
func (s *Selector) Catalog() *Catalog { return s.catalog }

// Select returns the best candidate for the request. It always returns
// a selection: when nothing satisfies the filters it falls back to the
// highest-quality known model.
func (s *Selector) Select(req Request) Selection {
	floor := qualityFloor(req.QualityLevel)
	needed := requiredComplexity(req.TaskType)

	var candidates []Capability
	for _, m := range s.catalog.Models {
		if !m.suits(req.TaskType) {
			continue
		}
		if m.QualityScore < floor {
			continue
		}
		if complexityRank(m.MaxComplexity) < complexityRank(needed) {
			continue
		}
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		best := s.highestQuality()
		return Selection{
			Model:    best.Model,
			Provider: best.Provider,
			Fallback: true,
			Reasoning: fmt.Sprintf(
				"no model in the catalog suits task=%s quality=%s; falling back to highest-quality model %s",
				req.TaskType, req.QualityLevel, best.Model),
		}
	}

	maxPrice := s.maxCandidatePrice(candidates)
	costWeight, qualityWeight, speedWeight := weights(req)

	type scored struct {
		cap       Capability
		composite float64
		costScore float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, m := range candidates {
		costScore := s.costScore(m.Model, maxPrice)
		composite := (costScore*costWeight +
			float64(m.QualityScore)*qualityWeight +
			float64(m.SpeedScore)*speedWeight) /
			(costWeight + qualityWeight + speedWeight)
		ranked = append(ranked, scored{cap: m, composite: composite, costScore: costScore})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].composite != ranked[j].composite {
			return ranked[i].composite > ranked[j].composite
		}
		// Tie-break on price so equal composites still prefer cheaper.
		return ranked[i].costScore > ranked[j].costScore
	})

	winner := ranked[0]
	alternatives := make([]string, 0, len(ranked)-1)
	for _, r := range ranked[1:] {
		alternatives = append(alternatives, fmt.Sprintf("%s (%.2f)", r.cap.Model, r.composite))
	}

	reasoning := fmt.Sprintf(
		"selected %s for task=%s quality=%s (weights cost=%.0f quality=%.0f speed=%.0f, composite %.2f)",
		winner.cap.Model, req.TaskType, req.QualityLevel,
		costWeight, qualityWeight, speedWeight, winner.composite)
	if len(alternatives) > 0 {
		reasoning += "; runners-up: " + strings.Join(alternatives, ", ")
	}

	return Selection{
		Model:        winner.cap.Model,
		Provider:     winner.cap.Provider,
		Score:        winner.composite,
		Reasoning:    reasoning,
		Alternatives: alternatives,
	}
}

// weights returns the axis weights: 3x for a prioritized axis, 1x otherwise.
func weights(req Request) (cost, quality, speed float64) {
	cost, quality, speed = 1, 1, 1
	if req.PrioritizeCost {
		cost = 3
	}
	if req.PrioritizeQuality {
		quality = 3
	}
	if req.PrioritizeSpeed {
		speed = 3
	}
	return cost, quality, speed
}

// costScore maps a model's combined per-1K price onto a 1..10 axis,
// inverted and normalized against the most expensive candidate.
func (s *Selector) costScore(model string, maxPrice float64) float64 {
	if maxPrice <= 0 {
		return 10
	}
	return 1 + 9*(1-s.price(model)/maxPrice)
}

func (s *Selector) price(model string) float64 {
	p, ok := s.table.Lookup(model)
	if !ok {
		p = s.table.MostExpensive()
	}
	return p.InputPerKilo + p.OutputPerKilo
}

func (s *Selector) maxCandidatePrice(candidates []Capability) float64 {
	var max float64
	for _, m := range candidates {
		if price := s.price(m.Model); price > max {
			max = price
		}
	}
	return max
}

func (s *Selector) highestQuality() Capability {
	best := s.catalog.Models[0]
	for _, m := range s.catalog.Models[1:] {
		if m.QualityScore > best.QualityScore {
			best = m
		}
	}
	return best
}
