package selector

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalog []byte

// Catalog is the versioned model capability matrix, read-only at runtime.
type Catalog struct {
	Version int          `yaml:"version"`
	Updated string       `yaml:"updated"`
	Models  []Capability `yaml:"models"`
}

// DefaultCatalog returns the embedded capability matrix.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalogBytes(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded model catalog invalid: %v", err))
	}
	return c
}

// LoadCatalogFile reads a YAML capability file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog %s: %w", path, err)
	}
	c, err := LoadCatalogBytes(data)
	if err != nil {
		return nil, fmt.Errorf("model catalog %s: %w", path, err)
	}
	return c, nil
}

// LoadCatalogBytes parses YAML capability data from raw bytes.
func LoadCatalogBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}
	if len(c.Models) == 0 {
		return nil, fmt.Errorf("no models defined")
	}
	for i, m := range c.Models {
		if m.Model == "" {
			return nil, fmt.Errorf("model entry %d: missing model name", i)
		}
		if m.QualityScore < 1 || m.QualityScore > 10 {
			return nil, fmt.Errorf("model %q: quality_score %d out of range 1..10", m.Model, m.QualityScore)
		}
		if m.SpeedScore < 1 || m.SpeedScore > 10 {
			return nil, fmt.Errorf("model %q: speed_score %d out of range 1..10", m.Model, m.SpeedScore)
		}
	}
	return &c, nil
}
