package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a factory run and the state expected at its end.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Topology is the CUE topology directory. LoadScenario resolves it
	// relative to the scenario file.
	Topology string `yaml:"topology"`

	// Ticks is the number of clock ticks to run.
	Ticks int64 `yaml:"ticks"`

	// RunID is an optional fixed run id for deterministic run logs.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the final state.
	// Supported types: delivered, produced, occupancy, busy
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one component's final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "delivered": sink delivered total equals Count
	// - "produced": source produced total equals Count
	// - "occupancy": belt occupancy equals Count
	// - "busy": building busy flag equals Busy
	Type string `yaml:"type"`

	// Component is the id of the component under test.
	Component string `yaml:"component"`

	// Count is the expected number (delivered, produced, occupancy).
	Count int64 `yaml:"count,omitempty"`

	// Busy is the expected busy flag (busy).
	Busy *bool `yaml:"busy,omitempty"`
}

// Assertion type constants.
const (
	AssertDelivered = "delivered"
	AssertProduced  = "produced"
	AssertOccupancy = "occupancy"
	AssertBusy      = "busy"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative topology path is resolved against the scenario file's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Topology != "" && !filepath.IsAbs(scenario.Topology) {
		scenario.Topology = filepath.Join(filepath.Dir(path), scenario.Topology)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files directly inside dir, in
// lexical order.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Topology == "" {
		return fmt.Errorf("topology is required")
	}
	if info, err := os.Stat(s.Topology); err != nil || !info.IsDir() {
		return fmt.Errorf("topology directory not found: %s", s.Topology)
	}

	if s.Ticks <= 0 {
		return fmt.Errorf("ticks must be > 0, got %d", s.Ticks)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Component == "" {
		return fmt.Errorf("assertions[%d]: component is required", index)
	}

	switch a.Type {
	case AssertDelivered, AssertProduced, AssertOccupancy:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be >= 0 for %s", index, a.Type)
		}
		if a.Busy != nil {
			return fmt.Errorf("assertions[%d]: busy is not valid for %s", index, a.Type)
		}
	case AssertBusy:
		if a.Busy == nil {
			return fmt.Errorf("assertions[%d]: busy is required for busy assertion", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
