package core

import (
	"fmt"
	"sort"
	"strings"
)

// Assignment is an immutable mapping from variable name to value.
//
// The zero value is the empty assignment. All methods are non-mutating:
// Merge, Trim, and With return new assignments (sharing storage where
// nothing changes), so assignments are safe to hold across goroutines.
//
// The canonical form "X=a ^ Y=1" (variables sorted) doubles as the
// structural cache key used by anchored rules.
type Assignment struct {
	vars map[string]Value
}

// NewAssignment builds an assignment from a map, copying it. A nil map
// yields the empty assignment.
func NewAssignment(m map[string]Value) Assignment {
	if len(m) == 0 {
		return Assignment{}
	}
	vars := make(map[string]Value, len(m))
	for k, v := range m {
		vars[k] = v
	}
	return Assignment{vars: vars}
}

// Unary builds a single-pair assignment.
func Unary(variable string, value Value) Assignment {
	return Assignment{vars: map[string]Value{variable: value}}
}

// ParseAssignment parses "X=a, Y=1" or the canonical "X=a ^ Y=1" form.
// Values go through ParseValue. "[]" and the empty string parse to the
// empty assignment.
func ParseAssignment(s string) (Assignment, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return Assignment{}, nil
	}
	sep := ","
	if strings.Contains(s, "^") {
		sep = "^"
	}
	vars := make(map[string]Value)
	for _, pair := range strings.Split(s, sep) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			return Assignment{}, fmt.Errorf("parse assignment: %q is not variable=value", pair)
		}
		variable := strings.TrimSpace(pair[:eq])
		vars[variable] = ParseValue(pair[eq+1:])
	}
	return Assignment{vars: vars}, nil
}

// Get returns the value bound to variable.
func (a Assignment) Get(variable string) (Value, bool) {
	v, ok := a.vars[variable]
	return v, ok
}

// Has reports whether variable is bound.
func (a Assignment) Has(variable string) bool {
	_, ok := a.vars[variable]
	return ok
}

// Size returns the number of bound variables.
func (a Assignment) Size() int { return len(a.vars) }

// Variables returns the bound variable names in sorted order.
func (a Assignment) Variables() []string {
	vars := make([]string, 0, len(a.vars))
	for k := range a.vars {
		vars = append(vars, k)
	}
	sort.Strings(vars)
	return vars
}

// With returns a copy with variable bound to value.
func (a Assignment) With(variable string, value Value) Assignment {
	vars := make(map[string]Value, len(a.vars)+1)
	for k, v := range a.vars {
		vars[k] = v
	}
	vars[variable] = value
	return Assignment{vars: vars}
}

// Merge returns the union of a and other; other wins on conflicts.
// When either side is empty the other is returned unchanged.
func (a Assignment) Merge(other Assignment) Assignment {
	if len(other.vars) == 0 {
		return a
	}
	if len(a.vars) == 0 {
		return other
	}
	vars := make(map[string]Value, len(a.vars)+len(other.vars))
	for k, v := range a.vars {
		vars[k] = v
	}
	for k, v := range other.vars {
		vars[k] = v
	}
	return Assignment{vars: vars}
}

// Trim restricts the assignment to the given variables. Variables not
// bound in a are skipped, never invented.
func (a Assignment) Trim(keep []string) Assignment {
	vars := make(map[string]Value, len(keep))
	for _, k := range keep {
		if v, ok := a.vars[k]; ok {
			vars[k] = v
		}
	}
	if len(vars) == len(a.vars) {
		return a
	}
	return Assignment{vars: vars}
}

// Contains reports whether every pair of sub is present in a with an
// equal value. The empty assignment is contained in everything.
func (a Assignment) Contains(sub Assignment) bool {
	for k, want := range sub.vars {
		got, ok := a.vars[k]
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal reports whether two assignments bind the same variables to equal
// values.
func (a Assignment) Equal(other Assignment) bool {
	return len(a.vars) == len(other.vars) && a.Contains(other)
}

// String returns the canonical form "X=a ^ Y=1" with variables sorted,
// or "[]" for the empty assignment. This form is the cache key.
func (a Assignment) String() string {
	if len(a.vars) == 0 {
		return "[]"
	}
	vars := a.Variables()
	parts := make([]string, len(vars))
	for i, k := range vars {
		parts[i] = k + "=" + a.vars[k].String()
	}
	return strings.Join(parts, " ^ ")
}
