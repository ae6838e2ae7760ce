package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDomain creates a minimal domain file for testing. Scenario
// loading only checks existence; compilation happens in Run.
func createTestDomain(t *testing.T, dir, name string) string {
	t.Helper()
	domainsDir := filepath.Join(dir, "domains")
	if err := os.MkdirAll(domainsDir, 0755); err != nil {
		t.Fatal(err)
	}
	domainPath := filepath.Join(domainsDir, name)
	if err := os.WriteFile(domainPath, []byte(`domain: name: "placeholder"`), 0644); err != nil {
		t.Fatal(err)
	}
	return domainPath
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Scenario covering every step kind"
domain: ` + domainPath + `
evidence: "intent=checkout"
session_token: "fixed-token"
steps:
  - kind: prob
    rule: confirm
    input: "intent=checkout"
    head: "a_m:=confirm"
    expect: 0.75
  - kind: distribution
    rule: confirm
    input: "intent=browse"
    rows:
      - effect: "a_m:=listen"
        weight: 1
  - kind: utility
    rule: reward
    input: "basket=full ^ a_m=confirm"
    expect: 2
    tolerance: 0.001
  - kind: sample
    rule: confirm
    n: 10
    seed: 42
    allowed: ["a_m:=confirm", "a_m:=clarify"]
    record: true
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Scenario covering every step kind", scenario.Description)
	assert.Equal(t, domainPath, scenario.Domain)
	assert.Equal(t, "intent=checkout", scenario.Evidence)
	assert.Equal(t, "fixed-token", scenario.SessionToken)
	require.Len(t, scenario.Steps, 4)

	prob := scenario.Steps[0]
	assert.Equal(t, StepProb, prob.Kind)
	assert.Equal(t, "confirm", prob.Rule)
	assert.Equal(t, "a_m:=confirm", prob.Head)
	require.NotNil(t, prob.Expect)
	assert.Equal(t, 0.75, *prob.Expect)

	dist := scenario.Steps[1]
	assert.Equal(t, StepDistribution, dist.Kind)
	require.Len(t, dist.Rows, 1)
	assert.Equal(t, "a_m:=listen", dist.Rows[0].Effect)
	assert.Equal(t, 1.0, dist.Rows[0].Weight)

	util := scenario.Steps[2]
	assert.Equal(t, StepUtility, util.Kind)
	assert.Equal(t, 0.001, util.Tolerance)

	sample := scenario.Steps[3]
	assert.Equal(t, StepSample, sample.Kind)
	assert.Equal(t, 10, sample.N)
	assert.Equal(t, int64(42), sample.Seed)
	assert.Equal(t, []string{"a_m:=confirm", "a_m:=clarify"}, sample.Allowed)
	assert.True(t, sample.Record)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingName(t *testing.T) {
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
description: "Missing name"
domain: ` + domainPath + `
steps:
  - kind: utility
    rule: reward
    expect: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_MissingDescription(t *testing.T) {
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test
domain: ` + domainPath + `
steps:
  - kind: utility
    rule: reward
    expect: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestLoadScenario_MissingDomain(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test
description: "Test"
steps:
  - kind: utility
    rule: reward
    expect: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain is required")
}

func TestLoadScenario_MissingSteps(t *testing.T) {
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test
description: "Test"
domain: ` + domainPath + `
steps: []
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps list is required")
}

func TestLoadScenario_DomainNotFound(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test
description: "Test"
domain: /nonexistent/checkout.cue
steps:
  - kind: utility
    rule: reward
    expect: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain file not found")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test
description: "Test"
steps:
  - invalid yaml structure
  unclosed: [bracket
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_StepValidation(t *testing.T) {
	tests := []struct {
		name     string
		stepYAML string
		wantErr  string
	}{
		{
			name: "prob_valid",
			stepYAML: `
  - kind: prob
    rule: confirm
    head: "a_m:=confirm"
    expect: 0.75
`,
			wantErr: "",
		},
		{
			name: "prob_missing_head",
			stepYAML: `
  - kind: prob
    rule: confirm
    expect: 0.75
`,
			wantErr: "head is required for prob",
		},
		{
			name: "prob_missing_expect",
			stepYAML: `
  - kind: prob
    rule: confirm
    head: "a_m:=confirm"
`,
			wantErr: "expect is required for prob",
		},
		{
			name: "distribution_missing_rows",
			stepYAML: `
  - kind: distribution
    rule: confirm
`,
			wantErr: "rows list is required for distribution",
		},
		{
			name: "utility_missing_expect",
			stepYAML: `
  - kind: utility
    rule: reward
`,
			wantErr: "expect is required for utility",
		},
		{
			name: "utility_zero_expect_allowed",
			stepYAML: `
  - kind: utility
    rule: reward
    expect: 0
`,
			// Zero is a legitimate expected utility; only a missing
			// expect is rejected.
			wantErr: "",
		},
		{
			name: "sample_missing_n",
			stepYAML: `
  - kind: sample
    rule: confirm
    seed: 1
`,
			wantErr: "n must be positive for sample",
		},
		{
			name: "sample_negative_n",
			stepYAML: `
  - kind: sample
    rule: confirm
    n: -5
`,
			wantErr: "n must be positive for sample",
		},
		{
			name: "negative_tolerance",
			stepYAML: `
  - kind: prob
    rule: confirm
    head: "a_m:=confirm"
    expect: 0.75
    tolerance: -0.1
`,
			wantErr: "tolerance must be non-negative",
		},
		{
			name: "unknown_kind",
			stepYAML: `
  - kind: marginal
    rule: confirm
`,
			wantErr: "unknown step kind",
		},
		{
			name: "missing_kind",
			stepYAML: `
  - rule: confirm
`,
			wantErr: "kind is required",
		},
		{
			name: "missing_rule",
			stepYAML: `
  - kind: utility
    expect: 1
`,
			wantErr: "rule is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			domainPath := createTestDomain(t, dir, "checkout.cue")
			scenarioPath := filepath.Join(dir, "test.yaml")

			content := `
name: test
description: "Test"
domain: ` + domainPath + `
steps:
` + tt.stepYAML

			require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

			_, err := LoadScenario(scenarioPath)

			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	// YAML files with typos (unknown fields) should be rejected
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "typo_step_singular",
			yaml: fmt.Sprintf(`
name: test
description: Test typo
domain: %s
step:
  - kind: utility
    rule: reward
    expect: 1
steps:
  - kind: utility
    rule: reward
    expect: 1
`, domainPath),
			wantErr: "field step not found",
		},
		{
			name: "typo_in_step",
			yaml: fmt.Sprintf(`
name: test
description: Test typo
domain: %s
steps:
  - kind: utility
    rul: reward
    expect: 1
`, domainPath),
			wantErr: "field rul not found",
		},
		{
			name: "unknown_top_level_field",
			yaml: fmt.Sprintf(`
name: test
description: Test typo
domain: %s
unknown_field: value
steps:
  - kind: utility
    rule: reward
    expect: 1
`, domainPath),
			wantErr: "field unknown_field not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarioPath := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(scenarioPath, []byte(tt.yaml), 0644))

			_, err := LoadScenario(scenarioPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	createTestDomain(t, dir, "checkout.cue")
	scenarioPath := filepath.Join(dir, "test.yaml")

	// Use relative path in scenario
	content := `
name: test
description: "Test with relative domain path"
domain: domains/checkout.cue
steps:
  - kind: utility
    rule: reward
    expect: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	// Load without base path - should fail because domain path is relative
	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain file not found")

	// Now load with base path
	scenario, err := LoadScenarioWithBasePath(scenarioPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "domains/checkout.cue"), scenario.Domain)
}

func TestLoadScenarioWithBasePath_AbsoluteDomainPath(t *testing.T) {
	dir := t.TempDir()
	domainPath := createTestDomain(t, dir, "checkout.cue")

	scenarioContent := fmt.Sprintf(`
name: test
description: Test absolute paths
domain: %s
steps:
  - kind: utility
    rule: reward
    expect: 1
`, domainPath)

	scenarioPath := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(scenarioContent), 0644))

	// Absolute domain paths should NOT be joined with the base path
	scenario, err := LoadScenarioWithBasePath(scenarioPath, "/some/other/base")
	require.NoError(t, err)
	assert.Equal(t, domainPath, scenario.Domain)
}

func TestStepTolerance_Default(t *testing.T) {
	s := Step{}
	assert.Equal(t, defaultTolerance, s.tolerance())

	s.Tolerance = 0.01
	assert.Equal(t, 0.01, s.tolerance())
}

func TestStepKindConstants(t *testing.T) {
	assert.Equal(t, "prob", StepProb)
	assert.Equal(t, "distribution", StepDistribution)
	assert.Equal(t, "utility", StepUtility)
	assert.Equal(t, "sample", StepSample)
}

// TestLoadExampleScenarios validates the scenario files in
// testdata/scenarios. These serve as documentation and regression tests.
func TestLoadExampleScenarios(t *testing.T) {
	tests := []struct {
		name          string
		scenarioFile  string
		wantName      string
		wantStepCount int
	}{
		{
			name:          "checkout_queries",
			scenarioFile:  "testdata/scenarios/checkout_queries.yaml",
			wantName:      "checkout-queries",
			wantStepCount: 5,
		},
		{
			name:          "checkout_sampling",
			scenarioFile:  "testdata/scenarios/checkout_sampling.yaml",
			wantName:      "checkout-sampling",
			wantStepCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, err := LoadScenarioWithBasePath(tt.scenarioFile, filepath.Dir(tt.scenarioFile))
			require.NoError(t, err, "failed to load example scenario %s", tt.scenarioFile)

			assert.Equal(t, tt.wantName, scenario.Name)
			assert.Len(t, scenario.Steps, tt.wantStepCount)
		})
	}
}
