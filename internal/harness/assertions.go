package harness

import (
	"fmt"
	"math"
	"strings"
)

// AssertionError is returned when a step's expectations fail.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string  // Assertion type for categorization
	Expected string  // Human-readable expected outcome
	Actual   string  // Human-readable actual outcome
	Trail    []Event // Events executed so far, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Event trail for context
	fmt.Fprintf(&buf, "\nEvent trail:\n")
	for i, event := range e.Trail {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event.summary())
	}

	return buf.String()
}

// withinTolerance reports whether actual is within tol of expected.
func withinTolerance(actual, expected, tol float64) bool {
	return math.Abs(actual-expected) <= tol
}

// checkValue compares a prob or utility observation against the step's
// expectation.
func checkValue(step Step, index int, actual float64, trail []Event) error {
	if step.Expect == nil {
		return nil
	}
	if withinTolerance(actual, *step.Expect, step.tolerance()) {
		return nil
	}
	return &AssertionError{
		Type:     fmt.Sprintf("%s (step %d)", step.Kind, index+1),
		Expected: fmt.Sprintf("%v (tolerance %v)", *step.Expect, step.tolerance()),
		Actual:   fmt.Sprintf("%v", actual),
		Trail:    trail,
	}
}

// checkRows compares observed distribution rows against the expected
// ones. The match is exact up to tolerance: every expected row must be
// present with the right weight, and no extra rows may appear.
func checkRows(step Step, index int, rows []ExpectedRow, trail []Event) error {
	tol := step.tolerance()

	observed := make(map[string]float64, len(rows))
	for _, r := range rows {
		observed[r.Effect] = r.Weight
	}

	var problems []string
	for _, want := range step.Rows {
		got, ok := observed[want.Effect]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing row %q", want.Effect))
			continue
		}
		if !withinTolerance(got, want.Weight, tol) {
			problems = append(problems, fmt.Sprintf("row %q: want %v, got %v", want.Effect, want.Weight, got))
		}
		delete(observed, want.Effect)
	}
	for _, r := range rows {
		if _, extra := observed[r.Effect]; extra {
			problems = append(problems, fmt.Sprintf("unexpected row %q (weight %v)", r.Effect, r.Weight))
			delete(observed, r.Effect)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     fmt.Sprintf("distribution (step %d)", index+1),
		Expected: fmt.Sprintf("%d row(s) matching within tolerance %v", len(step.Rows), tol),
		Actual:   strings.Join(problems, "; "),
		Trail:    trail,
	}
}

// checkDraw verifies a sampled effect is admissible for the step.
// Draws must come from the anchored table; when the step lists allowed
// effects, the draw must also be one of them.
func checkDraw(step Step, index int, effect string, tableEffects map[string]bool, trail []Event) error {
	if !tableEffects[effect] {
		return &AssertionError{
			Type:     fmt.Sprintf("sample (step %d)", index+1),
			Expected: "draws from the anchored distribution",
			Actual:   fmt.Sprintf("drew %q, not in the table", effect),
			Trail:    trail,
		}
	}
	if len(step.Allowed) == 0 {
		return nil
	}
	for _, allowed := range step.Allowed {
		if effect == allowed {
			return nil
		}
	}
	return &AssertionError{
		Type:     fmt.Sprintf("sample (step %d)", index+1),
		Expected: fmt.Sprintf("draws in %v", step.Allowed),
		Actual:   fmt.Sprintf("drew %q", effect),
		Trail:    trail,
	}
}

// checkRecording verifies the replayed session log.
func checkRecording(step Step, index int, recorded int, verified bool, corrupt []string, trail []Event) error {
	if recorded != step.N {
		return &AssertionError{
			Type:     fmt.Sprintf("sample recording (step %d)", index+1),
			Expected: fmt.Sprintf("%d turn(s) recorded", step.N),
			Actual:   fmt.Sprintf("%d turn(s)", recorded),
			Trail:    trail,
		}
	}
	if !verified {
		return &AssertionError{
			Type:     fmt.Sprintf("sample recording (step %d)", index+1),
			Expected: "session log verifies",
			Actual:   fmt.Sprintf("%d corrupt turn(s): %v", len(corrupt), corrupt),
			Trail:    trail,
		}
	}
	return nil
}
