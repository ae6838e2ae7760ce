package harness

import "fmt"

// Event records one executed step and what it observed.
// The trail of events doubles as the payload for golden snapshots, so
// every field must be deterministic for a fixed scenario and seed.
type Event struct {
	// Step is the 1-based index of the step in the scenario.
	Step int `json:"step"`

	// Kind is the step kind that produced this event.
	Kind string `json:"kind"`

	// Rule is the anchored rule identifier, slot suffix included.
	Rule string `json:"rule"`

	// Input is the full condition the query ran against.
	Input string `json:"input"`

	// Head is the queried effect for prob steps.
	Head string `json:"head,omitempty"`

	// Value is the observed probability or utility.
	Value *float64 `json:"value,omitempty"`

	// Rows holds the observed distribution rows, in table order.
	Rows []ExpectedRow `json:"rows,omitempty"`

	// Draws is the number of samples taken by a sample step.
	Draws int `json:"draws,omitempty"`

	// Recorded is the number of turns written by a recording sample
	// step, after replay.
	Recorded int `json:"recorded,omitempty"`

	// Verified reports whether the recorded session log verified.
	Verified *bool `json:"verified,omitempty"`
}

// summary renders a one-line description of the event for error trails.
func (e Event) summary() string {
	switch e.Kind {
	case StepProb:
		return fmt.Sprintf("prob %s | %s, head %s = %s", e.Rule, e.Input, e.Head, formatValue(e.Value))
	case StepDistribution:
		return fmt.Sprintf("distribution %s | %s (%d row(s))", e.Rule, e.Input, len(e.Rows))
	case StepUtility:
		return fmt.Sprintf("utility %s | %s = %s", e.Rule, e.Input, formatValue(e.Value))
	case StepSample:
		return fmt.Sprintf("sample %s | %s (%d draw(s))", e.Rule, e.Input, e.Draws)
	default:
		return fmt.Sprintf("%s %s | %s", e.Kind, e.Rule, e.Input)
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%.4f", *v)
}

// Result contains the outcome of a scenario run.
type Result struct {
	// Pass is true when every step's expectations held.
	Pass bool `json:"pass"`

	// Events is the ordered trail of executed steps.
	Events []Event `json:"events"`

	// Errors lists assertion failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a Result with Pass=true and empty trails.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []Event{},
		Errors: []string{},
	}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(err error) {
	r.Pass = false
	r.Errors = append(r.Errors, err.Error())
}

// AddEvent appends an event to the trail.
func (r *Result) AddEvent(e Event) {
	r.Events = append(r.Events, e)
}
