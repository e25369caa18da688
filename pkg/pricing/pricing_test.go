package pricing_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/recordwise/aigate/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table := pricing.Default()
	assert.NotEmpty(t, table.Models)
	assert.Positive(t, table.Version)

	p, ok := table.Lookup("gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, "openai", p.Provider)
	assert.Positive(t, p.InputPerKilo)
	assert.Positive(t, p.OutputPerKilo)
}

func TestLookup_Unknown(t *testing.T) {
	table := pricing.Default()
	_, ok := table.Lookup("some-future-model")
	assert.False(t, ok)
}

func TestMostExpensive(t *testing.T) {
	table, err := pricing.LoadBytes([]byte(`
version: 1
models:
  - model: cheap
    provider: a
    input_per_1k: 0.001
    output_per_1k: 0.002
  - model: pricey
    provider: b
    input_per_1k: 0.02
    output_per_1k: 0.08
`))
	require.NoError(t, err)
	assert.Equal(t, "pricey", table.MostExpensive().Model)
}

func TestProviders(t *testing.T) {
	table := pricing.Default()
	providers := table.Providers()
	assert.Contains(t, providers, "openai")
	assert.Contains(t, providers, "anthropic")
	assert.Contains(t, providers, "perplexity")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
models:
  - model: custom
    provider: local
    input_per_1k: 0.0001
    output_per_1k: 0.0002
`), 0o644))

	table, err := pricing.LoadFile(path)
	require.NoError(t, err)

	p, ok := table.Lookup("custom")
	require.True(t, ok)
	assert.Equal(t, "local", p.Provider)
}

func TestLoadBytes_Invalid(t *testing.T) {
	_, err := pricing.LoadBytes([]byte("version: 1\nmodels: []\n"))
	assert.Error(t, err)

	_, err = pricing.LoadBytes([]byte(`
version: 1
models:
  - provider: a
    input_per_1k: 0.1
`))
	assert.Error(t, err)

	_, err = pricing.LoadBytes([]byte("{{not yaml"))
	assert.Error(t, err)
}
