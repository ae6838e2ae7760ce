package rules

import (
	"strings"
)

// WeightedPair is one (effect, parameter) element of a rule output.
type WeightedPair struct {
	Effect *Effect
	Param  Parameter
}

// Output is the result of evaluating a rule on one full input assignment:
// the grounded (effect, parameter) pairs of the case that fired. Outputs
// are read-only once returned and safe to share across goroutines, which
// is what lets anchored rules cache them.
type Output struct {
	pairs []WeightedPair
	index map[string]int
}

// NewOutput returns an empty (void) output.
func NewOutput() *Output {
	return &Output{index: make(map[string]int)}
}

// Add records a pair. Adding a second parameter for the same effect
// replaces the earlier pair, mirroring map semantics over effect identity.
func (o *Output) Add(e *Effect, p Parameter) {
	if i, ok := o.index[e.String()]; ok {
		o.pairs[i] = WeightedPair{Effect: e, Param: p}
		return
	}
	o.index[e.String()] = len(o.pairs)
	o.pairs = append(o.pairs, WeightedPair{Effect: e, Param: p})
}

// Void reports whether no case applied (no pairs).
func (o *Output) Void() bool { return len(o.pairs) == 0 }

// Pairs returns the pairs in insertion order. Callers must not modify the
// returned slice.
func (o *Output) Pairs() []WeightedPair { return o.pairs }

// Effects returns the effects in insertion order.
func (o *Output) Effects() []*Effect {
	out := make([]*Effect, len(o.pairs))
	for i, p := range o.pairs {
		out[i] = p.Effect
	}
	return out
}

func (o *Output) String() string {
	if o.Void() {
		return "Void"
	}
	parts := make([]string, len(o.pairs))
	for i, p := range o.pairs {
		parts[i] = "[" + p.Effect.String() + "] with " + p.Param.String()
	}
	return strings.Join(parts, ", ")
}
