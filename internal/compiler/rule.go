package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/lyssym/opendial/internal/rules"
)

// parseRules extracts every entry of the top-level `rule` map, sorted
// by rule identifier.
func parseRules(v cue.Value) ([]*rules.Rule, error) {
	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return nil, nil
	}

	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rs []*rules.Rule
	for iter.Next() {
		r, err := parseRule(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	sortRules(rs)
	return rs, nil
}

// parseRule compiles a single rule struct: its kind and ordered cases.
func parseRule(id string, v cue.Value) (*rules.Rule, error) {
	field := "rule." + id

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: `kind is required ("prob" or "util")`,
			Pos:     v.Pos(),
		}
	}
	kindStr, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := rules.ParseKind(kindStr)
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: err.Error(),
			Pos:     kindVal.Pos(),
		}
	}

	var cases []rules.Case
	casesVal := v.LookupPath(cue.ParsePath("cases"))
	if casesVal.Exists() {
		caseIter, err := casesVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; caseIter.Next(); i++ {
			c, err := parseCase(fmt.Sprintf("%s.cases[%d]", field, i), caseIter.Value())
			if err != nil {
				return nil, err
			}
			cases = append(cases, c)
		}
	}

	return rules.NewRule(id, kind, cases...), nil
}

// parseCase compiles one case: an optional `when` condition list
// (absent means always satisfied) and a required `then` weighted-effect
// list.
func parseCase(field string, v cue.Value) (rules.Case, error) {
	cond, err := parseCondition(field, v)
	if err != nil {
		return rules.Case{}, err
	}

	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return rules.Case{}, &CompileError{
			Field:   field + ".then",
			Message: "then clause is required",
			Pos:     v.Pos(),
		}
	}

	effIter, err := thenVal.List()
	if err != nil {
		return rules.Case{}, formatCUEError(err)
	}

	var effects []rules.WeightedEffect
	for i := 0; effIter.Next(); i++ {
		eff, err := parseWeightedEffect(fmt.Sprintf("%s.then[%d]", field, i), effIter.Value())
		if err != nil {
			return rules.Case{}, err
		}
		effects = append(effects, eff)
	}

	return rules.Case{Condition: cond, Effects: effects}, nil
}

// parseCondition builds the case condition from the `when` list.
// Entries form a conjunction; a missing list compiles to the void
// condition.
func parseCondition(field string, v cue.Value) (rules.Condition, error) {
	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return rules.Void{}, nil
	}

	litIter, err := whenVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var conds []rules.Condition
	for i := 0; litIter.Next(); i++ {
		lit, err := parseConditionLiteral(fmt.Sprintf("%s.when[%d]", field, i), litIter.Value())
		if err != nil {
			return nil, err
		}
		conds = append(conds, lit)
	}

	switch len(conds) {
	case 0:
		return rules.Void{}, nil
	case 1:
		return conds[0], nil
	default:
		return rules.Complex{Operator: rules.And, Conditions: conds}, nil
	}
}

// parseConditionLiteral compiles one `{var, op, value}` entry. The
// operator defaults to equality.
func parseConditionLiteral(field string, v cue.Value) (rules.Condition, error) {
	varVal := v.LookupPath(cue.ParsePath("var"))
	if !varVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".var",
			Message: "condition variable is required",
			Pos:     v.Pos(),
		}
	}
	variable, err := varVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	rel := rules.Equal
	opVal := v.LookupPath(cue.ParsePath("op"))
	if opVal.Exists() {
		opStr, err := opVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		rel, err = rules.ParseRelation(opStr)
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".op",
				Message: err.Error(),
				Pos:     opVal.Pos(),
			}
		}
	}

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".value",
			Message: "condition value is required",
			Pos:     v.Pos(),
		}
	}
	raw, err := scalarString(valueVal)
	if err != nil {
		return nil, err
	}

	return rules.NewBasic(variable, rel, raw), nil
}

// parseWeightedEffect compiles one `{set, weight}` entry. An absent or
// empty `set` yields the void effect; an absent weight defaults to 1.
func parseWeightedEffect(field string, v cue.Value) (rules.WeightedEffect, error) {
	var pairs []string
	setVal := v.LookupPath(cue.ParsePath("set"))
	if setVal.Exists() {
		iter, err := setVal.Fields()
		if err != nil {
			return rules.WeightedEffect{}, formatCUEError(err)
		}
		for iter.Next() {
			raw, err := scalarString(iter.Value())
			if err != nil {
				return rules.WeightedEffect{}, err
			}
			pairs = append(pairs, iter.Label(), raw)
		}
	}

	param, err := parseWeight(field, v)
	if err != nil {
		return rules.WeightedEffect{}, err
	}

	return rules.WeightedEffect{
		Pattern: rules.NewEffectPattern(pairs...),
		Param:   param,
	}, nil
}

// parseWeight compiles the weight of an effect. Supports a plain number
// (fixed), {node: "id"} (chance-node reference), and {expr: "...",
// vars: [...]} (expression, CEL-compiled here so bad expressions fail
// at domain compile time).
func parseWeight(field string, v cue.Value) (rules.Parameter, error) {
	wVal := v.LookupPath(cue.ParsePath("weight"))
	if !wVal.Exists() {
		return rules.Fixed(1), nil
	}

	switch wVal.Kind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := wVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return rules.Fixed(f), nil

	case cue.StructKind:
		nodeVal := wVal.LookupPath(cue.ParsePath("node"))
		if nodeVal.Exists() {
			id, err := nodeVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			return rules.Node{ID: id}, nil
		}

		exprVal := wVal.LookupPath(cue.ParsePath("expr"))
		if exprVal.Exists() {
			text, err := exprVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			var vars []string
			varsVal := wVal.LookupPath(cue.ParsePath("vars"))
			if varsVal.Exists() {
				varIter, err := varsVal.List()
				if err != nil {
					return nil, formatCUEError(err)
				}
				for varIter.Next() {
					name, err := varIter.Value().String()
					if err != nil {
						return nil, formatCUEError(err)
					}
					vars = append(vars, name)
				}
			}
			expr, err := rules.NewExpr(text, vars)
			if err != nil {
				return nil, &CompileError{
					Field:   field + ".weight",
					Message: err.Error(),
					Pos:     exprVal.Pos(),
				}
			}
			return expr, nil
		}
	}

	return nil, &CompileError{
		Field:   field + ".weight",
		Message: `weight must be a number, {node: "id"}, or {expr: "...", vars: [...]}`,
		Pos:     wVal.Pos(),
	}
}
