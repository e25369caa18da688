// Package pricing provides the versioned model pricing table used for
// cost estimation. Prices ship embedded in the binary and can be
// overridden with an external YAML file so rate changes do not require
// a rebuild.
package pricing

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var defaultPricing []byte

// Default returns the embedded pricing table.
func Default() *Table {
	t, err := LoadBytes(defaultPricing)
	if err != nil {
		// The embedded table ships with the binary; failing to parse it
		// is a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded pricing table invalid: %v", err))
	}
	return t
}

// LoadFile reads a YAML pricing file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file %s: %w", path, err)
	}
	t, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("pricing file %s: %w", path, err)
	}
	return t, nil
}

// LoadBytes parses YAML pricing data from raw bytes.
func LoadBytes(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse pricing data: %w", err)
	}
	if len(t.Models) == 0 {
		return nil, fmt.Errorf("no models defined")
	}
	for i, m := range t.Models {
		if m.Model == "" {
			return nil, fmt.Errorf("model entry %d: missing model name", i)
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("model %q: missing provider", m.Model)
		}
	}
	t.index()
	return &t, nil
}
