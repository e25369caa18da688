package pricing

// ModelPricing holds per-1K-token prices for one model.
type ModelPricing struct {
	Model         string  `yaml:"model"`
	Provider      string  `yaml:"provider"`
	InputPerKilo  float64 `yaml:"input_per_1k"`
	OutputPerKilo float64 `yaml:"output_per_1k"`
}

// Table is a versioned pricing table loaded from YAML configuration.
// It is read-only after construction.
type Table struct {
	Version int            `yaml:"version"`
	Updated string         `yaml:"updated"`
	Models  []ModelPricing `yaml:"models"`

	byModel map[string]ModelPricing
}

// Lookup returns the pricing entry for a model.
func (t *Table) Lookup(model string) (ModelPricing, bool) {
	p, ok := t.byModel[model]
	return p, ok
}

// MostExpensive returns the entry with the highest combined per-1K price.
// Used as a conservative stand-in for unknown models.
func (t *Table) MostExpensive() ModelPricing {
	var max ModelPricing
	for _, p := range t.Models {
		if p.InputPerKilo+p.OutputPerKilo > max.InputPerKilo+max.OutputPerKilo {
			max = p
		}
	}
	return max
}

// Providers returns the distinct provider names in the table.
func (t *Table) Providers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range t.Models {
		if !seen[p.Provider] {
			seen[p.Provider] = true
			names = append(names, p.Provider)
		}
	}
	return names
}

func (t *Table) index() {
	t.byModel = make(map[string]ModelPricing, len(t.Models))
	for _, p := range t.Models {
		t.byModel[p.Model] = p
	}
}
