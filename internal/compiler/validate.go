package compiler

import (
	"fmt"
	"strings"

	"github.com/lyssym/opendial/internal/rules"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported type for validation

	// Domain errors (E201-E203)
	ErrDomainNameEmpty      = "E201" // name is required
	ErrNoRules              = "E202" // at least one rule expected
	ErrEvidenceOutsideRange = "E203" // evidence value not in declared domain

	// Rule errors (E204-E207)
	ErrRuleNoCases         = "E204" // rule has no cases
	ErrCaseNoEffects       = "E205" // case has an empty then list
	ErrNegativeProbWeight  = "E206" // probability weight below zero
	ErrDuplicateCaseEffect = "E207" // same effect listed twice in one case
)

// ValidationError represents a semantic validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled domain against semantic rules that the
// structural compiler cannot express. Returns all errors found (does
// not fail-fast).
func Validate(v any) []ValidationError {
	switch d := v.(type) {
	case *CompiledDomain:
		return validateDomain(d)
	case CompiledDomain:
		return validateDomain(&d)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateDomain(d *CompiledDomain) []ValidationError {
	var errs []ValidationError

	// E201: name must be non-empty
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "domain.name",
			Message: "name is required and must be non-empty",
			Code:    ErrDomainNameEmpty,
		})
	}

	// E202: a domain without rules cannot produce anything
	if len(d.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rule",
			Message: "at least one rule is required",
			Code:    ErrNoRules,
		})
	}

	// E203: evidence on a declared variable must use a declared value
	for _, name := range d.Evidence.Variables() {
		if !d.Variables.Has(name) {
			continue
		}
		val, _ := d.Evidence.Get(name)
		if !d.Variables[name].Contains(val) {
			errs = append(errs, ValidationError{
				Field:   "domain.evidence." + name,
				Message: fmt.Sprintf("evidence value %q is not in the declared domain of %q", val.String(), name),
				Code:    ErrEvidenceOutsideRange,
			})
		}
	}

	for _, r := range d.Rules {
		errs = append(errs, validateRule(r)...)
	}

	return errs
}

func validateRule(r *rules.Rule) []ValidationError {
	var errs []ValidationError
	field := "rule." + r.ID()

	// E204: rule must have at least one case
	if len(r.Cases()) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".cases",
			Message: fmt.Sprintf("rule %q has no cases", r.ID()),
			Code:    ErrRuleNoCases,
		})
	}

	for i, c := range r.Cases() {
		caseField := fmt.Sprintf("%s.cases[%d]", field, i)

		// E205: a case must produce at least one effect
		if len(c.Effects) == 0 {
			errs = append(errs, ValidationError{
				Field:   caseField + ".then",
				Message: "case has an empty then list",
				Code:    ErrCaseNoEffects,
			})
		}

		seen := make(map[string]bool)
		for j, eff := range c.Effects {
			effField := fmt.Sprintf("%s.then[%d]", caseField, j)

			// E206: probabilities cannot be negative (utilities can)
			if f, ok := eff.Param.(rules.Fixed); ok && r.Kind() == rules.Probability && float64(f) < 0 {
				errs = append(errs, ValidationError{
					Field:   effField + ".weight",
					Message: fmt.Sprintf("probability weight %v is negative", float64(f)),
					Code:    ErrNegativeProbWeight,
				})
			}

			// E207: duplicate effects in one case silently replace each
			// other at evaluation time
			key := eff.Pattern.String()
			if seen[key] {
				errs = append(errs, ValidationError{
					Field:   effField + ".set",
					Message: fmt.Sprintf("effect %q is listed twice in one case", key),
					Code:    ErrDuplicateCaseEffect,
				})
			}
			seen[key] = true
		}
	}

	return errs
}
