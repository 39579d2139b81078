package factor

import (
	"os"

	"gopkg.in/yaml.v3"
)

// OverridesFile is the operator-supplied factor/threshold configuration.
// The emission_factors section is merged into the built-in defaults rather
// than replacing them.
type OverridesFile struct {
	EmissionFactors Table `yaml:"emission_factors"`
	Compliance      struct {
		Thresholds map[string]float64 `yaml:"thresholds"`
	} `yaml:"compliance"`
}

func LoadOverridesFile(path string) (*OverridesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var overrides OverridesFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return &overrides, nil
}
