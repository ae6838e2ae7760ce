package anchor

import (
	"fmt"
	"sort"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
	"github.com/lyssym/opendial/internal/template"
)

// Rule is the evaluator surface consumed by anchoring. *rules.Rule
// satisfies it; tests substitute scripted evaluators. Output must be a
// pure, terminating function of its input.
type Rule interface {
	ID() string
	Kind() rules.Kind
	InputTemplates() []template.Template
	Output(input core.Assignment) *rules.Output
}

// Context is the state surface consumed by anchoring: whether a variable
// is known, and if so its value domain. *state.State satisfies it.
type Context interface {
	HasVariable(id string) bool
	ValueDomain(id string) []core.Value
}

// AnchoredRule is a rule bound to one state snapshot and one fixed slot
// assignment. Constructed once per (rule, snapshot, slots) triple,
// immutable afterwards except for lazy cache population, and safe for
// concurrent queries. There is no teardown; the anchor's lifetime is
// bound to the snapshot it was built against.
type AnchoredRule struct {
	id       string
	rule     Rule
	slots    core.Assignment
	relevant bool

	inputs  core.ValueRange
	outputs core.ValueRange

	// cacheVars is the variable set queries are trimmed to before cache
	// lookup. For relevant utility rules it spans the output variables
	// too, since utility queries carry both state and action values.
	cacheVars []string

	effects []*rules.Effect
	params  []string

	cache *outputCache // nil when lookups are never memoized
}

// New anchors rule against ctx under the given fixed slot assignment.
//
// Input variables whose templates the slots cannot fill, and filled names
// the context does not know, contribute no domain; that is a normal
// outcome, never an error. Construction must finish before the instance
// is shared with concurrent readers.
func New(rule Rule, ctx Context, slots core.Assignment) *AnchoredRule {
	r := &AnchoredRule{
		id:      rule.ID(),
		rule:    rule,
		slots:   slots,
		inputs:  core.NewValueRange(),
		outputs: core.NewValueRange(),
	}
	if slots.Size() > 0 {
		r.id = rule.ID() + "(" + slots.String() + ")"
	}

	for _, tmpl := range rule.InputTemplates() {
		if !tmpl.FilledBy(slots) {
			continue
		}
		name := tmpl.Fill(slots)
		if ctx.HasVariable(name) {
			r.inputs.AddValues(name, ctx.ValueDomain(name)...)
		}
	}

	// Probability rules always memoize. Allocating before enumeration
	// means the lookups below populate the cache, so runtime queries for
	// enumerated inputs start warm.
	if rule.Kind() == rules.Probability {
		r.cache = newOutputCache()
	}
	r.cacheVars = r.inputs.Variables()

	seenEffect := make(map[string]bool)
	seenParam := make(map[string]bool)
	for _, input := range r.inputs.Linearise() {
		out := r.output(input)
		if !out.Void() {
			r.relevant = true
		}
		for _, pair := range out.Pairs() {
			if !seenEffect[pair.Effect.String()] {
				seenEffect[pair.Effect.String()] = true
				r.effects = append(r.effects, pair.Effect)
			}
			r.outputs.AddAssignment(pair.Effect.Assignment())
			for _, dep := range pair.Param.Variables() {
				if !seenParam[dep] && ctx.HasVariable(dep) {
					seenParam[dep] = true
					r.params = append(r.params, dep)
				}
			}
		}
	}
	sort.Strings(r.params)

	// Utility rules memoize only when anchoring found them relevant, and
	// their cache keys extend over the discovered output variables.
	if rule.Kind() == rules.Utility && r.relevant {
		have := make(map[string]bool, len(r.cacheVars))
		for _, v := range r.cacheVars {
			have[v] = true
		}
		for _, v := range r.outputs.Variables() {
			if !have[v] {
				r.cacheVars = append(r.cacheVars, v)
			}
		}
		sort.Strings(r.cacheVars)
		r.cache = newOutputCache()
	}

	return r
}

// Variable returns the anchored identifier: the rule identifier, suffixed
// with the fixed slot assignment when non-empty.
func (r *AnchoredRule) Variable() string { return r.id }

// Relevant reports whether any enumerated input produced a non-void
// output.
func (r *AnchoredRule) Relevant() bool { return r.relevant }

// Rule returns the underlying rule evaluator.
func (r *AnchoredRule) Rule() Rule { return r.rule }

// FilledSlots returns the fixed slot assignment.
func (r *AnchoredRule) FilledSlots() core.Assignment { return r.slots }

// InputRange returns the discovered input domain. The range is frozen
// after construction; callers must not modify it.
func (r *AnchoredRule) InputRange() core.ValueRange { return r.inputs }

// OutputRange returns the discovered output domain. The range is frozen
// after construction; callers must not modify it.
func (r *AnchoredRule) OutputRange() core.ValueRange { return r.outputs }

// InputVariables returns the input-domain variables, sorted.
func (r *AnchoredRule) InputVariables() []string {
	return r.inputs.Variables()
}

// Effects returns every effect reachable from some enumerated input, in
// discovery order.
func (r *AnchoredRule) Effects() []*rules.Effect {
	out := make([]*rules.Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Values returns the effect set as distribution values.
func (r *AnchoredRule) Values() []core.Value {
	out := make([]core.Value, len(r.effects))
	for i, e := range r.effects {
		out[i] = e
	}
	return out
}

// Parameters returns the known parameter-node dependencies, sorted.
func (r *AnchoredRule) Parameters() []string {
	out := make([]string, len(r.params))
	copy(out, r.params)
	return out
}

// Rename swaps the anchored identifier to newID only when it currently
// equals oldID; any other identifier is left untouched. This supports
// network-wide variable renames without reconstructing anchors. Rename is
// a maintenance operation, not meant to race with queries.
func (r *AnchoredRule) Rename(oldID, newID string) {
	if r.id == oldID {
		r.id = newID
	}
}

// Prune always refuses: the value set is derived from anchoring, not
// independently prunable.
func (r *AnchoredRule) Prune(threshold float64) bool { return false }

// Copy returns the receiver. Anchored rules are immutable value-like
// objects shared by reference; deep duplication is never performed.
func (r *AnchoredRule) Copy() *AnchoredRule { return r }

func (r *AnchoredRule) String() string {
	return fmt.Sprintf("anchored rule %s: inputs %s, outputs %s",
		r.id, r.inputs, r.outputs)
}
