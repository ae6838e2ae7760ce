package rules

import (
	"fmt"
	"strings"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/template"
)

// Relation is the comparison operator of a basic condition.
type Relation int

const (
	Equal Relation = iota
	Unequal
	Greater
	Lower
	Contains
	NotContains
)

// String returns the operator's surface form as written in domain files.
func (r Relation) String() string {
	switch r {
	case Equal:
		return "="
	case Unequal:
		return "!="
	case Greater:
		return ">"
	case Lower:
		return "<"
	case Contains:
		return "contains"
	case NotContains:
		return "!contains"
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// ParseRelation maps an operator's surface form to its Relation.
func ParseRelation(s string) (Relation, error) {
	switch strings.TrimSpace(s) {
	case "=", "==":
		return Equal, nil
	case "!=":
		return Unequal, nil
	case ">":
		return Greater, nil
	case "<":
		return Lower, nil
	case "contains":
		return Contains, nil
	case "!contains":
		return NotContains, nil
	default:
		return Equal, fmt.Errorf("unknown relation %q", s)
	}
}

// Condition decides whether a rule case applies to an input assignment.
//
// SatisfiedBy returns the slot bindings the condition captured while
// matching (empty for literal conditions). Captured bindings ground the
// case's effect patterns, so "u_u = buy {item}" firing on "buy apples"
// makes {item}=apples available to the effects.
type Condition interface {
	// Variables returns the templated input variables the condition reads.
	Variables() []template.Template
	// SatisfiedBy evaluates the condition against input.
	SatisfiedBy(input core.Assignment) (core.Assignment, bool)
	String() string
}

// Void is the always-true condition, used for default cases.
type Void struct{}

func (Void) Variables() []template.Template { return nil }

func (Void) SatisfiedBy(core.Assignment) (core.Assignment, bool) {
	return core.Assignment{}, true
}

func (Void) String() string { return "true" }

// Basic compares one variable against one value pattern.
//
// The variable side is filled from the input before lookup; a variable
// template that stays underspecified leaves the condition unsatisfied. An
// unbound variable reads as NoneValue, so "X != a" holds when X is absent.
type Basic struct {
	Variable template.Template
	Value    template.Template
	Relation Relation
}

// NewBasic builds a basic condition from surface text.
func NewBasic(variable string, rel Relation, value string) Basic {
	return Basic{
		Variable: template.Parse(variable),
		Value:    template.Parse(value),
		Relation: rel,
	}
}

func (c Basic) Variables() []template.Template {
	return []template.Template{c.Variable}
}

func (c Basic) SatisfiedBy(input core.Assignment) (core.Assignment, bool) {
	name := c.Variable.Fill(input)
	if strings.Contains(name, "{") {
		return core.Assignment{}, false
	}

	actual, bound := input.Get(name)
	if !bound {
		actual = core.NoneValue{}
	}

	switch c.Relation {
	case Equal:
		return c.Value.Match(actual.String())
	case Unequal:
		_, eq := c.Value.Match(actual.String())
		return core.Assignment{}, !eq
	case Greater, Lower:
		return core.Assignment{}, c.compareNumeric(actual, input)
	case Contains:
		return core.Assignment{}, c.containedIn(actual, input)
	case NotContains:
		return core.Assignment{}, !c.containedIn(actual, input)
	default:
		return core.Assignment{}, false
	}
}

// compareNumeric handles > and <. Both sides must resolve to numbers;
// anything else is an unsatisfied comparison, not an error.
func (c Basic) compareNumeric(actual core.Value, input core.Assignment) bool {
	left, ok := actual.(core.NumberValue)
	if !ok {
		return false
	}
	filled := c.Value.Fill(input)
	if strings.Contains(filled, "{") {
		return false
	}
	right, ok := core.ParseValue(filled).(core.NumberValue)
	if !ok {
		return false
	}
	if c.Relation == Greater {
		return left.Float() > right.Float()
	}
	return left.Float() < right.Float()
}

// containedIn tests membership: list values by element, strings by
// substring.
func (c Basic) containedIn(actual core.Value, input core.Assignment) bool {
	filled := c.Value.Fill(input)
	if strings.Contains(filled, "{") {
		return false
	}
	needle := core.ParseValue(filled)
	switch v := actual.(type) {
	case core.ListValue:
		for _, elem := range v {
			if core.Equal(elem, needle) {
				return true
			}
		}
		return false
	case core.StringValue:
		return strings.Contains(string(v), needle.String())
	default:
		return false
	}
}

func (c Basic) String() string {
	return fmt.Sprintf("%s %s %s", c.Variable.Raw(), c.Relation, c.Value.Raw())
}

// Operator joins subconditions of a Complex condition.
type Operator int

const (
	And Operator = iota
	Or
)

// Complex combines subconditions with and/or.
//
// Conjunctions thread captured bindings left to right: a slot captured by
// an earlier subcondition is visible to later ones, so "u_u = buy {item}
// and stock({item}) > 0" works as written. Disjunctions return the
// bindings of the first satisfied subcondition.
type Complex struct {
	Operator   Operator
	Conditions []Condition
}

func (c Complex) Variables() []template.Template {
	seen := make(map[string]bool)
	var out []template.Template
	for _, sub := range c.Conditions {
		for _, v := range sub.Variables() {
			if !seen[v.Raw()] {
				seen[v.Raw()] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func (c Complex) SatisfiedBy(input core.Assignment) (core.Assignment, bool) {
	if c.Operator == Or {
		for _, sub := range c.Conditions {
			if captured, ok := sub.SatisfiedBy(input); ok {
				return captured, true
			}
		}
		return core.Assignment{}, false
	}

	captured := core.Assignment{}
	scope := input
	for _, sub := range c.Conditions {
		got, ok := sub.SatisfiedBy(scope)
		if !ok {
			return core.Assignment{}, false
		}
		captured = captured.Merge(got)
		scope = scope.Merge(got)
	}
	return captured, true
}

func (c Complex) String() string {
	parts := make([]string, len(c.Conditions))
	for i, sub := range c.Conditions {
		parts[i] = sub.String()
	}
	op := " and "
	if c.Operator == Or {
		op = " or "
	}
	return "(" + strings.Join(parts, op) + ")"
}
