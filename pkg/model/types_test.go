package model_test

import (
	"testing"
	"time"

	"github.com/recordwise/aigate/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestStateForUtilization(t *testing.T) {
	assert.Equal(t, model.StateHealthy, model.StateForUtilization(0.0, true))
	assert.Equal(t, model.StateHealthy, model.StateForUtilization(0.69, true))
	assert.Equal(t, model.StateDegraded, model.StateForUtilization(0.70, true))
	assert.Equal(t, model.StateDegraded, model.StateForUtilization(0.89, true))
	assert.Equal(t, model.StateCritical, model.StateForUtilization(0.90, true))
	assert.Equal(t, model.StateCritical, model.StateForUtilization(1.5, true))
}

func TestStateForUtilization_StoreDown(t *testing.T) {
	// An unreachable store caps the state at degraded regardless of spend.
	assert.Equal(t, model.StateDegraded, model.StateForUtilization(0.0, false))
	assert.Equal(t, model.StateDegraded, model.StateForUtilization(0.95, false))
}

func TestEnrichmentInput_CacheKey(t *testing.T) {
	a := model.EnrichmentInput{Name: "Acme", OneLiner: "Widgets", Tags: []string{"b2b", "manufacturing"}}
	b := model.EnrichmentInput{Name: "Acme", OneLiner: "Widgets", Tags: []string{"b2b", "manufacturing"}}
	c := model.EnrichmentInput{Name: "Acme", OneLiner: "Widgets", Tags: []string{"b2c"}}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestEnrichmentInput_PromptText(t *testing.T) {
	in := model.EnrichmentInput{Name: "Acme", OneLiner: "Widgets for everyone", Tags: []string{"b2b"}}
	assert.Equal(t, "Acme: Widgets for everyone [b2b]", in.PromptText())

	empty := model.EnrichmentInput{}
	assert.Equal(t, "", empty.PromptText())

	nameOnly := model.EnrichmentInput{Name: "Acme"}
	assert.Equal(t, "Acme", nameOnly.PromptText())
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "2025-03-09", model.DayKey(ts))
}
