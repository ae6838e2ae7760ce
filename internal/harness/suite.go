package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScenarioNotFoundError is returned when a suite path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// Outcome is the result of one scenario within a suite.
type Outcome struct {
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult aggregates outcomes across a set of scenario files.
type SuiteResult struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes"`
}

// DiscoverScenarios resolves root to a list of scenario files. A file
// path is returned as-is; a directory is walked for .yaml and .yml
// files. filter, when non-empty, is a glob matched against the file
// name without its extension. Walk order is lexical, so the returned
// list is deterministic.
func DiscoverScenarios(root, filter string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: root}
		}
		return nil, err
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// RunSuite loads and runs each scenario file, resolving domain paths
// relative to the scenario's own directory. Load and execution errors
// become failed outcomes rather than aborting the suite, so one broken
// scenario never hides the results of the rest.
func RunSuite(paths []string) *SuiteResult {
	suite := &SuiteResult{
		Total:    len(paths),
		Outcomes: make([]Outcome, 0, len(paths)),
	}

	for _, path := range paths {
		outcome := runSuiteScenario(path)
		suite.Outcomes = append(suite.Outcomes, outcome)
		if outcome.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}

	return suite
}

// runSuiteScenario executes a single scenario file. Before the file
// parses, the outcome is named after the file itself.
func runSuiteScenario(path string) Outcome {
	outcome := Outcome{Path: path, Name: filepath.Base(path)}

	scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("loading scenario: %v", err)}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := Run(scenario)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("running scenario: %v", err)}
		return outcome
	}

	outcome.Pass = result.Pass
	if len(result.Errors) > 0 {
		outcome.Errors = result.Errors
	}
	return outcome
}
