package anchor

import (
	"log/slog"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/distrib"
	"github.com/lyssym/opendial/internal/rules"
)

// output is the shared lookup behind every query: the rule output for
// input merged with the fixed slots.
//
// Without a cache the rule is evaluated directly on every call. With a
// cache the input is first trimmed to the cache-key variable set, so
// conditions that differ only in irrelevant variables share one key and
// one evaluation.
func (r *AnchoredRule) output(input core.Assignment) *rules.Output {
	if r.cache == nil {
		return r.rule.Output(input.Merge(r.slots))
	}
	full := input.Trim(r.cacheVars).Merge(r.slots)
	return r.cache.fetchOrCompute(full.String(), func() *rules.Output {
		return r.rule.Output(full)
	})
}

// Prob returns the mass the conditional distribution assigns to head, 0
// when the head is absent.
func (r *AnchoredRule) Prob(condition core.Assignment, head core.Value) float64 {
	return r.Table(condition).Prob(head)
}

// Table builds the categorical distribution over effects for the given
// condition. Each (effect, parameter) pair contributes a row only when
// the parameter evaluates strictly positive at the condition; non-positive
// weights are silently excluded, not clamped, so callers can use them to
// mark impossible effects.
//
// A zero-row table is a reachable outcome for a relevant rule whose
// admissible effects all vanish at this specific input; it is logged as a
// warning and returned as a valid empty distribution, never an error.
func (r *AnchoredRule) Table(condition core.Assignment) *distrib.Categorical {
	out := r.output(condition)
	b := distrib.NewBuilder(r.id)
	for _, pair := range out.Pairs() {
		// The parameter sees the caller's full condition, not the trimmed
		// cache key: parameter nodes may live outside the input domain.
		if w := pair.Param.Value(condition); w > 0 {
			b.AddRow(pair.Effect, w)
		}
	}
	if b.Empty() {
		slog.Warn("anchored rule produced an empty distribution",
			"rule", r.id, "input", condition.String())
	}
	return b.Build()
}

// Utility sums, over every effect of the output whose satisfaction
// condition holds at fullInput, the parameter evaluated at fullInput.
// Contributions are additive: unlike the probability case, an assignment
// may satisfy several effects at once.
func (r *AnchoredRule) Utility(fullInput core.Assignment) float64 {
	out := r.output(fullInput)
	total := 0.0
	for _, pair := range out.Pairs() {
		if _, ok := pair.Effect.Condition().SatisfiedBy(fullInput); ok {
			total += pair.Param.Value(fullInput)
		}
	}
	return total
}

// Sample draws one effect from the conditional distribution.
func (r *AnchoredRule) Sample(condition core.Assignment) (core.Value, error) {
	return r.Table(condition).SampleDefault()
}

// Posterior returns the marginal view of the anchored rule with condition
// fixed.
func (r *AnchoredRule) Posterior(condition core.Assignment) *distrib.Marginal {
	return distrib.NewMarginal(r, condition)
}
