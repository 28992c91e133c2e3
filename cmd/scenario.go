package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	sim "github.com/cobubbles/cobubbles/sim"
)

// Define struct for YAML
type ScenarioConfig struct {
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// Scenario is one named preset: a variant plus parameter overrides using
// the flat parameter names.
type Scenario struct {
	Variant string             `yaml:"variant"`
	Params  map[string]float64 `yaml:"params"`
}

// LoadScenarios reads a preset file. Decoding is strict: unknown YAML
// keys are configuration errors.
func LoadScenarios(path string) (map[string]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg ScenarioConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	if len(cfg.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s defines no scenarios", path)
	}
	return cfg.Scenarios, nil
}

// PickScenario selects the named preset. An empty name is allowed when
// the file defines exactly one.
func PickScenario(scenarios map[string]Scenario, name string) (Scenario, error) {
	if name == "" {
		if len(scenarios) == 1 {
			for _, sc := range scenarios {
				return sc, nil
			}
		}
		return Scenario{}, fmt.Errorf("scenario name required, file defines: %s",
			strings.Join(scenarioNames(scenarios), ", "))
	}
	sc, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (valid: %s)",
			name, strings.Join(scenarioNames(scenarios), ", "))
	}
	return sc, nil
}

func scenarioNames(scenarios map[string]Scenario) []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays the preset onto base and returns the merged parameters
// plus the preset's variant name (empty when the preset does not pick
// one). Unknown parameter names and unknown variants are configuration
// errors.
func (sc Scenario) Apply(base sim.Params) (sim.Params, string, error) {
	merged := base.Map()
	for name, value := range sc.Params {
		if _, ok := merged[name]; !ok {
			return base, "", fmt.Errorf("unknown parameter %q in scenario", name)
		}
		merged[name] = value
	}
	if sc.Variant != "" && !knownVariant(sc.Variant) {
		return base, "", fmt.Errorf("unknown variant %q in scenario (valid: %s)",
			sc.Variant, strings.Join(sim.VariantNames(), ", "))
	}
	return sim.ParamsFromMap(merged), sc.Variant, nil
}

func knownVariant(name string) bool {
	for _, v := range sim.VariantNames() {
		if v == name {
			return true
		}
	}
	return false
}
