package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/template"
)

// BasicEffect sets one output variable to one value.
type BasicEffect struct {
	Variable string
	Value    core.Value
}

func (b BasicEffect) String() string {
	return b.Variable + ":=" + b.Value.String()
}

// Effect is a grounded consequence of a rule firing: an ordered set of
// basic effects over distinct output variables.
//
// Effects are values in their own right (they implement core.Value through
// the canonical form "Y:=1 ^ Z:=2"), which lets a rule's output
// distribution range over effects directly. The canonical form sorts basic
// effects, so declaration order never influences identity.
type Effect struct {
	parts []BasicEffect
	canon string
}

// NewEffect builds an effect from basic effects, sorting and deduplicating
// them. The empty effect has canonical form "Void".
func NewEffect(parts ...BasicEffect) *Effect {
	sorted := make([]BasicEffect, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		key := p.String()
		if !seen[key] {
			seen[key] = true
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	e := &Effect{parts: sorted}
	if len(sorted) == 0 {
		e.canon = "Void"
	} else {
		strs := make([]string, len(sorted))
		for i, p := range sorted {
			strs[i] = p.String()
		}
		e.canon = strings.Join(strs, " ^ ")
	}
	return e
}

// ParseEffect parses the canonical form back into an effect. "Void" and
// the empty string parse to the empty effect.
func ParseEffect(s string) (*Effect, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Void" {
		return NewEffect(), nil
	}
	var parts []BasicEffect
	for _, chunk := range strings.Split(s, "^") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		sep := strings.Index(chunk, ":=")
		if sep <= 0 {
			return nil, fmt.Errorf("parse effect: %q is not variable:=value", chunk)
		}
		parts = append(parts, BasicEffect{
			Variable: strings.TrimSpace(chunk[:sep]),
			Value:    core.ParseValue(chunk[sep+2:]),
		})
	}
	return NewEffect(parts...), nil
}

// String returns the canonical form. This makes *Effect a core.Value.
func (e *Effect) String() string { return e.canon }

// Parts returns the basic effects in canonical order. Callers must not
// modify the returned slice.
func (e *Effect) Parts() []BasicEffect { return e.parts }

// Empty reports whether the effect changes nothing.
func (e *Effect) Empty() bool { return len(e.parts) == 0 }

// Variables returns the affected output variables, sorted.
func (e *Effect) Variables() []string {
	vars := make([]string, 0, len(e.parts))
	seen := make(map[string]bool, len(e.parts))
	for _, p := range e.parts {
		if !seen[p.Variable] {
			seen[p.Variable] = true
			vars = append(vars, p.Variable)
		}
	}
	sort.Strings(vars)
	return vars
}

// Assignment returns the variable bindings the effect establishes.
func (e *Effect) Assignment() core.Assignment {
	m := make(map[string]core.Value, len(e.parts))
	for _, p := range e.parts {
		m[p.Variable] = p.Value
	}
	return core.NewAssignment(m)
}

// Condition returns the satisfaction condition equivalent to the effect:
// the conjunction requiring every affected variable to equal its effect
// value. The empty effect converts to the always-true condition.
func (e *Effect) Condition() Condition {
	if len(e.parts) == 0 {
		return Void{}
	}
	subs := make([]Condition, len(e.parts))
	for i, p := range e.parts {
		subs[i] = Basic{
			Variable: template.Parse(p.Variable),
			Value:    template.Parse(p.Value.String()),
			Relation: Equal,
		}
	}
	if len(subs) == 1 {
		return subs[0]
	}
	return Complex{Operator: And, Conditions: subs}
}

// Equal reports canonical-form equality.
func (e *Effect) Equal(other *Effect) bool {
	return other != nil && e.canon == other.canon
}
