package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios query anchored rules against a compiled domain and assert on
// the probabilities, distributions, utilities, and samples they produce.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Domain is the path to the CUE dialogue-domain file to compile.
	// Relative paths resolve against the scenario file location.
	Domain string `yaml:"domain"`

	// Evidence is an optional assignment merged over the domain's own
	// evidence before every step, e.g. "X=a ^ mood=good".
	Evidence string `yaml:"evidence,omitempty"`

	// Steps contains the queries to execute, in order.
	Steps []Step `yaml:"steps"`

	// SessionToken is an optional fixed session token for sample steps
	// that record. If empty, defaults to "harness-session" so golden
	// files stay deterministic.
	SessionToken string `yaml:"session_token,omitempty"`
}

// Step is one query against an anchored rule, with its expectations.
type Step struct {
	// Kind selects the query: "prob", "distribution", "utility", or
	// "sample".
	Kind string `yaml:"kind"`

	// Rule is the rule identifier to anchor and query.
	Rule string `yaml:"rule"`

	// Input is the condition assignment, e.g. "X=a".
	Input string `yaml:"input,omitempty"`

	// Slots is an optional fixed slot assignment for templated rules.
	Slots string `yaml:"slots,omitempty"`

	// Head is the effect whose probability to query (prob steps only),
	// e.g. "Y:=1".
	Head string `yaml:"head,omitempty"`

	// Expect is the expected value for prob and utility steps.
	Expect *float64 `yaml:"expect,omitempty"`

	// Tolerance bounds the allowed deviation from Expect and from the
	// expected row weights. Zero means the default of 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Rows lists the expected distribution rows (distribution steps).
	// The comparison is exact: extra or missing rows fail.
	Rows []ExpectedRow `yaml:"rows,omitempty"`

	// N is the number of draws for sample steps.
	N int `yaml:"n,omitempty"`

	// Seed seeds the sampler for sample steps.
	Seed int64 `yaml:"seed,omitempty"`

	// Allowed restricts the admissible effects for sample steps. Every
	// draw must be in this set; an empty set allows any table effect.
	Allowed []string `yaml:"allowed,omitempty"`

	// Record writes the draws of a sample step to an in-memory session
	// store and replays them, asserting the log verifies.
	Record bool `yaml:"record,omitempty"`
}

// ExpectedRow is one expected effect/weight row of a distribution.
type ExpectedRow struct {
	Effect string  `yaml:"effect" json:"effect"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Step kind constants.
const (
	StepProb         = "prob"
	StepDistribution = "distribution"
	StepUtility      = "utility"
	StepSample       = "sample"
)

// defaultTolerance is applied when a step does not set one.
const defaultTolerance = 1e-9

// tolerance returns the step's tolerance, defaulted.
func (s Step) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return defaultTolerance
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the domain path relative to the provided base path.
// This is useful when scenario files reference domains using relative paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the domain path relative to the base path BEFORE validation
	if scenario.Domain != "" && !filepath.IsAbs(scenario.Domain) && basePath != "" {
		scenario.Domain = filepath.Join(basePath, scenario.Domain)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Domain == "" {
		return fmt.Errorf("domain is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Domain); os.IsNotExist(err) {
		return fmt.Errorf("domain file not found: %s", s.Domain)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its kind.
func validateStep(index int, s *Step) error {
	if s.Kind == "" {
		return fmt.Errorf("steps[%d]: kind is required", index)
	}
	if s.Rule == "" {
		return fmt.Errorf("steps[%d]: rule is required", index)
	}

	switch s.Kind {
	case StepProb:
		if s.Head == "" {
			return fmt.Errorf("steps[%d]: head is required for prob", index)
		}
		if s.Expect == nil {
			return fmt.Errorf("steps[%d]: expect is required for prob", index)
		}
	case StepDistribution:
		if len(s.Rows) == 0 {
			return fmt.Errorf("steps[%d]: rows list is required for distribution", index)
		}
	case StepUtility:
		if s.Expect == nil {
			return fmt.Errorf("steps[%d]: expect is required for utility", index)
		}
	case StepSample:
		if s.N <= 0 {
			return fmt.Errorf("steps[%d]: n must be positive for sample", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown step kind %q", index, s.Kind)
	}

	if s.Tolerance < 0 {
		return fmt.Errorf("steps[%d]: tolerance must be non-negative", index)
	}

	return nil
}
