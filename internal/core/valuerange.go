package core

import (
	"sort"
	"strings"
)

// ValueSet is a set of values keyed by canonical form. The map form keeps
// membership checks O(1); Values() recovers a deterministic order.
type ValueSet map[string]Value

// NewValueSet builds a set from the given values.
func NewValueSet(values ...Value) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v, reporting whether it was new.
func (s ValueSet) Add(v Value) bool {
	key := v.String()
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = v
	return true
}

// Contains reports membership by canonical form.
func (s ValueSet) Contains(v Value) bool {
	_, ok := s[v.String()]
	return ok
}

// Values returns the members sorted by Compare.
func (s ValueSet) Values() []Value {
	vals := make([]Value, 0, len(s))
	for _, v := range s {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool { return Compare(vals[i], vals[j]) < 0 })
	return vals
}

// Copy returns an independent copy of the set.
func (s ValueSet) Copy() ValueSet {
	c := make(ValueSet, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Equal reports whether both sets hold the same canonical members.
func (s ValueSet) Equal(other ValueSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

func (s ValueSet) String() string {
	vals := s.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ValueRange maps each variable to its set of admissible values. It is the
// mutable accumulator used while anchoring discovers input and output
// domains; once construction finishes the owner stops mutating it.
type ValueRange map[string]ValueSet

// NewValueRange returns an empty range.
func NewValueRange() ValueRange {
	return make(ValueRange)
}

// Add records value as admissible for variable.
func (r ValueRange) Add(variable string, value Value) {
	set, ok := r[variable]
	if !ok {
		set = NewValueSet()
		r[variable] = set
	}
	set.Add(value)
}

// AddValues records several admissible values for variable.
func (r ValueRange) AddValues(variable string, values ...Value) {
	for _, v := range values {
		r.Add(variable, v)
	}
}

// AddAssignment records every pair of a as admissible.
func (r ValueRange) AddAssignment(a Assignment) {
	for _, variable := range a.Variables() {
		v, _ := a.Get(variable)
		r.Add(variable, v)
	}
}

// AddRange merges every entry of other into r.
func (r ValueRange) AddRange(other ValueRange) {
	for variable, set := range other {
		for _, v := range set.Values() {
			r.Add(variable, v)
		}
	}
}

// Has reports whether the range holds a domain for variable.
func (r ValueRange) Has(variable string) bool {
	_, ok := r[variable]
	return ok
}

// Variables returns the covered variable names in sorted order.
func (r ValueRange) Variables() []string {
	vars := make([]string, 0, len(r))
	for k := range r {
		vars = append(vars, k)
	}
	sort.Strings(vars)
	return vars
}

// ValuesOf returns the admissible values of variable in sorted order, or
// nil when the variable is not covered.
func (r ValueRange) ValuesOf(variable string) []Value {
	set, ok := r[variable]
	if !ok {
		return nil
	}
	return set.Values()
}

// Combinations returns the Cartesian-product cardinality of the range.
// The empty range counts one combination (the empty assignment).
func (r ValueRange) Combinations() int {
	n := 1
	for _, set := range r {
		if len(set) > 0 {
			n *= len(set)
		}
	}
	return n
}

// Linearise enumerates every full assignment over the range as the
// Cartesian product across variables, in deterministic order (variables
// sorted, values sorted). The empty range yields exactly one empty
// assignment. The result size is Combinations(), exponential in the number
// of variables; callers are responsible for keeping domains bounded.
func (r ValueRange) Linearise() []Assignment {
	out := []Assignment{{}}
	for _, variable := range r.Variables() {
		vals := r[variable].Values()
		if len(vals) == 0 {
			continue
		}
		next := make([]Assignment, 0, len(out)*len(vals))
		for _, partial := range out {
			for _, v := range vals {
				next = append(next, partial.With(variable, v))
			}
		}
		out = next
	}
	return out
}

// Copy returns an independent copy of the range.
func (r ValueRange) Copy() ValueRange {
	c := make(ValueRange, len(r))
	for variable, set := range r {
		c[variable] = set.Copy()
	}
	return c
}

// Equal reports whether both ranges cover the same variables with equal
// value sets.
func (r ValueRange) Equal(other ValueRange) bool {
	if len(r) != len(other) {
		return false
	}
	for variable, set := range r {
		o, ok := other[variable]
		if !ok || !set.Equal(o) {
			return false
		}
	}
	return true
}

func (r ValueRange) String() string {
	vars := r.Variables()
	parts := make([]string, len(vars))
	for i, variable := range vars {
		parts[i] = variable + "=" + r[variable].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
