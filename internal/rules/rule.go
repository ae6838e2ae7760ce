package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/template"
)

// Kind tags a rule as probability-valued or utility-valued. The tag is
// branched on directly wherever the two kinds diverge; there is no type
// hierarchy behind it.
type Kind int

const (
	Probability Kind = iota
	Utility
)

func (k Kind) String() string {
	switch k {
	case Probability:
		return "prob"
	case Utility:
		return "util"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps the surface forms "prob"/"probability" and
// "util"/"utility" to their Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prob", "probability":
		return Probability, nil
	case "util", "utility":
		return Utility, nil
	default:
		return Probability, fmt.Errorf("unknown rule kind %q", s)
	}
}

// EffectPart is one variable := value element of an effect pattern. Both
// sides may carry {slot} placeholders.
type EffectPart struct {
	Variable template.Template
	Value    template.Template
}

// EffectPattern is the templated form of an effect inside a rule case.
type EffectPattern []EffectPart

// NewEffectPattern builds a pattern from variable/value text pairs, given
// in alternating order.
func NewEffectPattern(pairs ...string) EffectPattern {
	pattern := make(EffectPattern, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		pattern = append(pattern, EffectPart{
			Variable: template.Parse(pairs[i]),
			Value:    template.Parse(pairs[i+1]),
		})
	}
	return pattern
}

// String renders the pattern in the canonical order-independent form
// shared with Effect: sorted "var:=value" parts joined by " ^ ", or
// "Void" for the empty pattern.
func (p EffectPattern) String() string {
	if len(p) == 0 {
		return "Void"
	}
	parts := make([]string, len(p))
	for i, part := range p {
		parts[i] = part.Variable.Raw() + ":=" + part.Value.Raw()
	}
	sort.Strings(parts)
	return strings.Join(parts, " ^ ")
}

// Ground fills the pattern's slots from bindings and returns the concrete
// effect. Slots without bindings keep their braces, so an ungroundable
// pattern stays visibly underspecified rather than failing.
func (p EffectPattern) Ground(bindings core.Assignment) *Effect {
	parts := make([]BasicEffect, 0, len(p))
	for _, part := range p {
		parts = append(parts, BasicEffect{
			Variable: part.Variable.Fill(bindings),
			Value:    core.ParseValue(part.Value.Fill(bindings)),
		})
	}
	return NewEffect(parts...)
}

// WeightedEffect pairs an effect pattern with its weight parameter.
type WeightedEffect struct {
	Pattern EffectPattern
	Param   Parameter
}

// Case is one conditional branch of a rule. When its condition is
// satisfied the case produces its weighted effects, grounded against the
// input plus the condition's captured bindings.
type Case struct {
	Condition Condition
	Effects   []WeightedEffect
}

// Rule is an ordered list of cases under one identifier and kind.
type Rule struct {
	id    string
	kind  Kind
	cases []Case
}

// NewRule builds a rule. Cases are evaluated in the given order.
func NewRule(id string, kind Kind, cases ...Case) *Rule {
	return &Rule{id: id, kind: kind, cases: cases}
}

// ID returns the rule identifier.
func (r *Rule) ID() string { return r.id }

// Kind returns the rule's kind tag.
func (r *Rule) Kind() Kind { return r.kind }

// Cases returns the cases in evaluation order. Callers must not modify
// the returned slice.
func (r *Rule) Cases() []Case { return r.cases }

// InputTemplates returns the templated input variables read by any case
// condition, deduplicated by raw text in first-appearance order.
func (r *Rule) InputTemplates() []template.Template {
	seen := make(map[string]bool)
	var out []template.Template
	for _, c := range r.cases {
		if c.Condition == nil {
			continue
		}
		for _, v := range c.Condition.Variables() {
			if !seen[v.Raw()] {
				seen[v.Raw()] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Output evaluates the rule on one full input assignment. Cases are tried
// in order and the first satisfied condition selects the output; no match
// yields the void output. Evaluation is pure: equal inputs produce equal
// outputs, which is what makes output caching sound.
func (r *Rule) Output(input core.Assignment) *Output {
	for _, c := range r.cases {
		cond := c.Condition
		if cond == nil {
			cond = Void{}
		}
		captured, ok := cond.SatisfiedBy(input)
		if !ok {
			continue
		}
		bindings := input.Merge(captured)
		out := NewOutput()
		for _, we := range c.Effects {
			out.Add(we.Pattern.Ground(bindings), we.Param)
		}
		return out
	}
	return NewOutput()
}

func (r *Rule) String() string {
	return fmt.Sprintf("rule %s [%s, %d cases]", r.id, r.kind, len(r.cases))
}
