package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"alpha.yaml", "beta.yml", "notes.txt", "nested/gamma.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("name: x\n"), 0o644))
	}

	files, err := DiscoverScenarios(dir, "")
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "alpha.yaml"), files[0])
	assert.Equal(t, filepath.Join(dir, "beta.yml"), files[1])
	assert.Equal(t, filepath.Join(dir, "nested", "gamma.yaml"), files[2])
}

func TestDiscoverScenarios_Filter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"alpha.yaml", "beta.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("name: x\n"), 0o644))
	}

	files, err := DiscoverScenarios(dir, "alpha*")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "alpha.yaml"), files[0])

	_, err = DiscoverScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestDiscoverScenarios_SingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: x\n"), 0o644))

	files, err := DiscoverScenarios(file, "")
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
}

func TestDiscoverScenarios_Missing(t *testing.T) {
	_, err := DiscoverScenarios(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)

	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRunSuite_ExampleScenarios(t *testing.T) {
	files, err := DiscoverScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.Len(t, files, 2)

	suite := RunSuite(files)
	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 2, suite.Passed)
	assert.Equal(t, 0, suite.Failed)

	require.Len(t, suite.Outcomes, 2)
	assert.Equal(t, "checkout-queries", suite.Outcomes[0].Name)
	assert.True(t, suite.Outcomes[0].Pass)
	assert.Equal(t, "checkout-sampling", suite.Outcomes[1].Name)
	assert.True(t, suite.Outcomes[1].Pass)
}

func TestRunSuite_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: broken\n"), 0o644))

	suite := RunSuite([]string{bad})
	assert.Equal(t, 1, suite.Total)
	assert.Equal(t, 0, suite.Passed)
	assert.Equal(t, 1, suite.Failed)

	require.Len(t, suite.Outcomes, 1)
	assert.Equal(t, "bad.yaml", suite.Outcomes[0].Name)
	assert.False(t, suite.Outcomes[0].Pass)
	require.NotEmpty(t, suite.Outcomes[0].Errors)
	assert.Contains(t, suite.Outcomes[0].Errors[0], "loading scenario")
}

func TestRunSuite_AssertionFailure(t *testing.T) {
	domain, err := filepath.Abs(checkoutDomain)
	require.NoError(t, err)

	dir := t.TempDir()
	scenario := `name: wrong-expectation
description: Expects the wrong probability.
domain: ` + domain + `
steps:
  - kind: prob
    rule: confirm
    input: "intent=checkout"
    head: "a_m:=confirm"
    expect: 0.5
`
	file := filepath.Join(dir, "wrong.yaml")
	require.NoError(t, os.WriteFile(file, []byte(scenario), 0o644))

	suite := RunSuite([]string{file})
	assert.Equal(t, 1, suite.Failed)

	require.Len(t, suite.Outcomes, 1)
	assert.Equal(t, "wrong-expectation", suite.Outcomes[0].Name)
	assert.False(t, suite.Outcomes[0].Pass)
	require.NotEmpty(t, suite.Outcomes[0].Errors)
	assert.Contains(t, suite.Outcomes[0].Errors[0], "Assertion failed")
}

func TestRunSuite_MixedOutcomes(t *testing.T) {
	files := []string{
		"testdata/scenarios/checkout_queries.yaml",
		filepath.Join(t.TempDir(), "missing.yaml"),
	}

	suite := RunSuite(files)
	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 1, suite.Failed)
	assert.True(t, suite.Outcomes[0].Pass)
	assert.False(t, suite.Outcomes[1].Pass)
}
