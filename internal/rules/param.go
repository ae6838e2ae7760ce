package rules

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"

	"github.com/lyssym/opendial/internal/core"
)

// Parameter is a pure weight function from assignment to real number: a
// probability mass for probability rules, a utility weight for utility
// rules.
//
// Value is total. Dependencies missing from the assignment, or bound to
// non-numeric values, read as 0; parameter failures never surface as
// errors inside a query.
type Parameter interface {
	Value(input core.Assignment) float64
	// Variables returns the state variables the parameter depends on.
	Variables() []string
	String() string
}

// Fixed is a constant weight.
type Fixed float64

func (f Fixed) Value(core.Assignment) float64 { return float64(f) }

func (f Fixed) Variables() []string { return nil }

func (f Fixed) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// Node reads its weight from a state variable, typically an estimated
// parameter node such as "theta_greeting". An unbound or non-numeric node
// reads as 0.
type Node struct {
	ID string
}

func (n Node) Value(input core.Assignment) float64 {
	return numericOrZero(input, n.ID)
}

func (n Node) Variables() []string { return []string{n.ID} }

func (n Node) String() string { return n.ID }

// Expr computes its weight from a CEL expression over declared state
// variables, e.g. "theta_1 * 0.5 + theta_2". Every declared variable is
// typed double inside the expression.
//
// Expressions compile once, at construction; NewExpr rejects text that
// does not compile, so query-time evaluation cannot fail on syntax.
type Expr struct {
	text string
	vars []string
	prg  cel.Program
}

// NewExpr compiles expression text against the declared variables.
func NewExpr(text string, vars []string) (*Expr, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for _, v := range vars {
		opts = append(opts, cel.Declarations(decls.NewVar(v, decls.Double)))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	ast, issues := env.Compile(text)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression %q: %w", text, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program for %q: %w", text, err)
	}

	sorted := make([]string, len(vars))
	copy(sorted, vars)
	sort.Strings(sorted)

	return &Expr{text: text, vars: sorted, prg: prg}, nil
}

// MustExpr is like NewExpr but panics on error. Use only in tests or with
// expressions known to be valid.
func MustExpr(text string, vars ...string) *Expr {
	e, err := NewExpr(text, vars)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) Value(input core.Assignment) float64 {
	activation := make(map[string]any, len(e.vars))
	for _, v := range e.vars {
		activation[v] = numericOrZero(input, v)
	}

	out, _, err := e.prg.Eval(activation)
	if err != nil {
		return 0
	}
	switch v := out.Value().(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return 0
	}
}

func (e *Expr) Variables() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

func (e *Expr) String() string { return e.text }

func numericOrZero(input core.Assignment, variable string) float64 {
	v, ok := input.Get(variable)
	if !ok {
		return 0
	}
	num, ok := v.(core.NumberValue)
	if !ok {
		return 0
	}
	return num.Float()
}
