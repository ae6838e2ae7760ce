package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the canonical serialization of a scenario run used for
// golden comparison. Field order is fixed by the struct, map-free, so
// marshaling is byte-deterministic.
type Snapshot struct {
	Scenario string  `json:"scenario"`
	Pass     bool    `json:"pass"`
	Events   []Event `json:"events"`
}

// marshalSnapshot renders the snapshot as indented JSON with a trailing
// newline, keeping the fixtures diffable text files.
func marshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunGolden executes a scenario and compares the event trail against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected query results; a
// diff means either the engine's semantics or the fixture needs a second
// look.
func RunGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already obtained result against a golden
// file. This is useful when the caller has run a scenario itself and
// wants the comparison without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := marshalSnapshot(Snapshot{
		Scenario: scenarioName,
		Pass:     result.Pass,
		Events:   result.Events,
	})
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
