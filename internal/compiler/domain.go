package compiler

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
	"github.com/lyssym/opendial/internal/state"
)

// CompiledDomain is the result of compiling a dialogue-domain file:
// the initial chance-node domains, optional evidence, and the rule set.
type CompiledDomain struct {
	Name      string
	Variables core.ValueRange
	Evidence  core.Assignment
	Rules     []*rules.Rule
}

// RuleByID returns the rule with the given identifier, or nil.
func (d *CompiledDomain) RuleByID(id string) *rules.Rule {
	for _, r := range d.Rules {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// State builds the initial dialogue state: declared variable domains
// plus the domain's evidence.
func (d *CompiledDomain) State() *state.State {
	s := state.New()
	for _, name := range d.Variables.Variables() {
		s.AddNode(name, d.Variables.ValuesOf(name)...)
	}
	s.AddEvidence(d.Evidence)
	return s
}

// LoadDomain reads and compiles a single dialogue-domain CUE file.
func LoadDomain(path string) (*CompiledDomain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileDomain(v)
}

// CompileDomain parses a root CUE value into a CompiledDomain.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the file root, holding a top-level `domain` struct
// and a `rule` struct map:
//
//	domain: {
//		name: "grocery"
//		variables: X: ["a", "b"]
//		evidence: X: "a"
//	}
//	rule: r1: {
//		kind: "prob"
//		cases: [{
//			when: [{var: "X", value: "a"}]
//			then: [{set: Y: "1", weight: 0.7}]
//		}]
//	}
func CompileDomain(v cue.Value) (*CompiledDomain, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	domainVal := v.LookupPath(cue.ParsePath("domain"))
	if !domainVal.Exists() {
		return nil, &CompileError{
			Field:   "domain",
			Message: "domain struct is required",
			Pos:     v.Pos(),
		}
	}

	compiled := &CompiledDomain{
		Variables: core.NewValueRange(),
	}

	// Parse name (required)
	nameVal := domainVal.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "domain.name",
			Message: "name is required",
			Pos:     domainVal.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	compiled.Name = name

	// Parse variables (optional, can be empty)
	if err := parseVariables(domainVal, compiled); err != nil {
		return nil, err
	}

	// Parse evidence (optional)
	if err := parseEvidence(domainVal, compiled); err != nil {
		return nil, err
	}

	// Parse rules
	compiled.Rules, err = parseRules(v)
	if err != nil {
		return nil, err
	}

	return compiled, nil
}

// parseVariables extracts the initial value domains from domain.variables.
func parseVariables(v cue.Value, compiled *CompiledDomain) error {
	varsVal := v.LookupPath(cue.ParsePath("variables"))
	if !varsVal.Exists() {
		return nil
	}

	iter, err := varsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		varName := iter.Label()
		listIter, err := iter.Value().List()
		if err != nil {
			return &CompileError{
				Field:   "domain.variables." + varName,
				Message: "variable domain must be a list of values",
				Pos:     iter.Value().Pos(),
			}
		}
		for listIter.Next() {
			raw, err := scalarString(listIter.Value())
			if err != nil {
				return err
			}
			compiled.Variables.Add(varName, core.ParseValue(raw))
		}
	}
	return nil
}

// parseEvidence extracts the evidence assignment from domain.evidence.
func parseEvidence(v cue.Value, compiled *CompiledDomain) error {
	evVal := v.LookupPath(cue.ParsePath("evidence"))
	if !evVal.Exists() {
		return nil
	}

	iter, err := evVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		raw, err := scalarString(iter.Value())
		if err != nil {
			return err
		}
		compiled.Evidence = compiled.Evidence.With(iter.Label(), core.ParseValue(raw))
	}
	return nil
}

// scalarString renders a concrete CUE scalar in the canonical textual
// form shared with core.ParseValue.
func scalarString(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported scalar kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// sortRules orders rules by identifier so compilation output is stable
// regardless of CUE field iteration order.
func sortRules(rs []*rules.Rule) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID() < rs[j].ID() })
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
