package harness

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lyssym/opendial/internal/anchor"
	"github.com/lyssym/opendial/internal/compiler"
	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/distrib"
	"github.com/lyssym/opendial/internal/rules"
	"github.com/lyssym/opendial/internal/store"
)

// Run executes a scenario and returns the outcome.
//
// Assertion failures land in the result's Errors and flip Pass to
// false. Only infrastructure problems return an error: an unreadable
// domain, an unknown rule, malformed step inputs.
func Run(scenario *Scenario) (*Result, error) {
	domain, err := compiler.LoadDomain(scenario.Domain)
	if err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}
	return RunWithDomain(scenario, domain)
}

// RunWithDomain executes a scenario against an already compiled domain.
func RunWithDomain(scenario *Scenario, domain *compiler.CompiledDomain) (*Result, error) {
	evidence := domain.Evidence
	if scenario.Evidence != "" {
		extra, err := core.ParseAssignment(scenario.Evidence)
		if err != nil {
			return nil, fmt.Errorf("parsing scenario evidence: %w", err)
		}
		evidence = evidence.Merge(extra)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := runStep(scenario, domain, evidence, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
	}
	return result, nil
}

// runStep anchors the step's rule and dispatches on the step kind.
func runStep(scenario *Scenario, domain *compiler.CompiledDomain, evidence core.Assignment, index int, step Step, result *Result) error {
	rule := domain.RuleByID(step.Rule)
	if rule == nil {
		return fmt.Errorf("rule %q not found in domain %q", step.Rule, domain.Name)
	}

	slots := core.Assignment{}
	if step.Slots != "" {
		parsed, err := core.ParseAssignment(step.Slots)
		if err != nil {
			return fmt.Errorf("parsing slots: %w", err)
		}
		slots = parsed
	}
	anchored := anchor.New(rule, domain.State(), slots)

	input := evidence
	if step.Input != "" {
		parsed, err := core.ParseAssignment(step.Input)
		if err != nil {
			return fmt.Errorf("parsing input: %w", err)
		}
		input = evidence.Merge(parsed)
	}

	event := Event{
		Step:  index + 1,
		Kind:  step.Kind,
		Rule:  anchored.Variable(),
		Input: input.String(),
	}

	switch step.Kind {
	case StepProb:
		head, err := rules.ParseEffect(step.Head)
		if err != nil {
			return fmt.Errorf("parsing head: %w", err)
		}
		actual := anchored.Prob(input, head)
		event.Head = head.String()
		event.Value = &actual
		result.AddEvent(event)
		if err := checkValue(step, index, actual, result.Events); err != nil {
			result.AddError(err)
		}

	case StepDistribution:
		table := anchored.Table(input)
		rows := make([]ExpectedRow, 0, table.Size())
		for _, row := range table.Rows() {
			rows = append(rows, ExpectedRow{Effect: row.Value.String(), Weight: row.Prob})
		}
		event.Rows = rows
		result.AddEvent(event)
		if err := checkRows(step, index, rows, result.Events); err != nil {
			result.AddError(err)
		}

	case StepUtility:
		actual := anchored.Utility(input)
		event.Value = &actual
		result.AddEvent(event)
		if err := checkValue(step, index, actual, result.Events); err != nil {
			result.AddError(err)
		}

	case StepSample:
		return runSampleStep(scenario, domain, anchored, input, index, step, result, event)

	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
	return nil
}

// runSampleStep draws from the anchored table with the step's seed,
// checks every draw is admissible, and optionally records the draws to
// an in-memory session store and verifies the replayed log.
func runSampleStep(scenario *Scenario, domain *compiler.CompiledDomain, anchored *anchor.AnchoredRule, input core.Assignment, index int, step Step, result *Result, event Event) error {
	table := anchored.Table(input)
	if table.Empty() {
		return fmt.Errorf("empty distribution for %s given %s", anchored.Variable(), input)
	}

	tableEffects := make(map[string]bool, table.Size())
	for _, row := range table.Rows() {
		tableEffects[row.Value.String()] = true
	}

	rng := rand.New(rand.NewSource(step.Seed))
	draws := make([]*rules.Effect, 0, step.N)
	for d := 0; d < step.N; d++ {
		v, err := table.Sample(rng)
		if err != nil {
			return fmt.Errorf("sampling: %w", err)
		}
		eff, ok := v.(*rules.Effect)
		if !ok {
			parsed, perr := rules.ParseEffect(v.String())
			if perr != nil {
				return fmt.Errorf("decoding drawn effect %q: %w", v.String(), perr)
			}
			eff = parsed
		}
		draws = append(draws, eff)
		if err := checkDraw(step, index, eff.String(), tableEffects, result.Events); err != nil {
			result.AddError(err)
		}
	}
	event.Draws = len(draws)

	if step.Record {
		recorded, verified, corrupt, err := recordDraws(scenario, domain, anchored, input, table, draws)
		if err != nil {
			return fmt.Errorf("recording draws: %w", err)
		}
		event.Recorded = recorded
		event.Verified = &verified
		result.AddEvent(event)
		if err := checkRecording(step, index, recorded, verified, corrupt, result.Events); err != nil {
			result.AddError(err)
		}
		return nil
	}

	result.AddEvent(event)
	return nil
}

// recordDraws writes one turn per draw to an in-memory store, then
// replays the session and reports whether the log verifies.
func recordDraws(scenario *Scenario, domain *compiler.CompiledDomain, anchored *anchor.AnchoredRule, input core.Assignment, table *distrib.Categorical, draws []*rules.Effect) (recorded int, verified bool, corrupt []string, err error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return 0, false, nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	token := scenario.SessionToken
	if token == "" {
		token = "harness-session"
	}
	gen := store.NewFixedGenerator(token)
	clock := store.NewClock()

	sess := store.Session{
		Token:      gen.Generate(),
		DomainName: domain.Name,
		CreatedSeq: clock.Current(),
	}
	turns := make([]store.Turn, 0, len(draws))
	for _, eff := range draws {
		turns = append(turns, store.NewTurn(sess.Token, clock.Next(), anchored.Variable(), input, eff, table.Prob(eff)))
	}

	ctx := context.Background()
	if err := st.WriteSessionAtomic(ctx, sess, turns); err != nil {
		return 0, false, nil, fmt.Errorf("writing session: %w", err)
	}

	state, err := st.GetSessionState(ctx, sess.Token)
	if err != nil {
		return 0, false, nil, fmt.Errorf("replaying session: %w", err)
	}
	return len(state.Turns), state.Verified(), state.CorruptTurns, nil
}
