package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

func compileString(t *testing.T, src string) (*CompiledDomain, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileDomain(v)
}

func TestCompileDomainBasic(t *testing.T) {
	d, err := compileString(t, `
		domain: {
			name: "grocery"
			variables: {
				X: ["a", "b"]
			}
			evidence: X: "a"
		}

		rule: r1: {
			kind: "prob"
			cases: [
				{
					when: [{var: "X", value: "a"}]
					then: [{set: Y: "1", weight: 0.7}]
				},
				{
					when: [{var: "X", value: "b"}]
					then: [
						{set: Y: "1", weight: 0.2},
						{set: Y: "2", weight: 0.8},
					]
				},
			]
		}

		rule: r0: {
			kind: "util"
			cases: [{
				then: [{set: "a_m": "greet", weight: 2.5}]
			}]
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, "grocery", d.Name)
	assert.Equal(t, "{X=[a, b]}", d.Variables.String())
	assert.Equal(t, "X=a", d.Evidence.String())

	require.Len(t, d.Rules, 2)
	assert.Equal(t, "r0", d.Rules[0].ID(), "rules are sorted by identifier")
	assert.Equal(t, rules.Utility, d.Rules[0].Kind())
	assert.Equal(t, rules.Probability, d.Rules[1].Kind())

	require.NotNil(t, d.RuleByID("r1"))
	assert.Nil(t, d.RuleByID("missing"))

	s := d.State()
	assert.True(t, s.HasVariable("X"))
	assert.Equal(t, "X=a", s.Evidence().String())
}

func TestCompiledRuleEvaluates(t *testing.T) {
	d, err := compileString(t, `
		domain: name: "mini"
		rule: r1: {
			kind: "prob"
			cases: [
				{
					when: [{var: "X", value: "a"}]
					then: [{set: Y: 1, weight: 0.7}]
				},
				{
					then: [{set: Y: "none"}]
				},
			]
		}
	`)
	require.NoError(t, err)

	r := d.RuleByID("r1")
	require.NotNil(t, r)

	input, err := core.ParseAssignment("X=a")
	require.NoError(t, err)
	out := r.Output(input)
	require.Len(t, out.Pairs(), 1)
	assert.Equal(t, "Y:=1", out.Pairs()[0].Effect.String())
	assert.Equal(t, 0.7, out.Pairs()[0].Param.Value(input))

	// Default case catches everything else, with the default weight 1.
	other, err := core.ParseAssignment("X=zzz")
	require.NoError(t, err)
	out = r.Output(other)
	require.Len(t, out.Pairs(), 1)
	assert.Equal(t, "Y:=none", out.Pairs()[0].Effect.String())
	assert.Equal(t, 1.0, out.Pairs()[0].Param.Value(other))
}

func TestCompileDomainWeightForms(t *testing.T) {
	d, err := compileString(t, `
		domain: name: "weights"
		rule: r1: {
			kind: "prob"
			cases: [{
				then: [
					{set: Y: "fixed", weight: 0.5},
					{set: Y: "node", weight: {node: "theta"}},
					{set: Y: "expr", weight: {expr: "theta * 2.0", vars: ["theta"]}},
				]
			}]
		}
	`)
	require.NoError(t, err)

	input, err := core.ParseAssignment("theta=0.3")
	require.NoError(t, err)
	out := d.RuleByID("r1").Output(input)
	require.Len(t, out.Pairs(), 3)

	byEffect := make(map[string]float64)
	for _, pair := range out.Pairs() {
		byEffect[pair.Effect.String()] = pair.Param.Value(input)
	}
	assert.Equal(t, 0.5, byEffect["Y:=fixed"])
	assert.Equal(t, 0.3, byEffect["Y:=node"])
	assert.InDelta(t, 0.6, byEffect["Y:=expr"], 1e-9)
}

func TestCompileDomainConditionOperators(t *testing.T) {
	d, err := compileString(t, `
		domain: name: "ops"
		rule: r1: {
			kind: "prob"
			cases: [{
				when: [
					{var: "score", op: ">", value: 3},
					{var: "mood", op: "!=", value: "bad"},
				]
				then: [{set: act: "go"}]
			}]
		}
	`)
	require.NoError(t, err)

	match, err := core.ParseAssignment("score=5, mood=fine")
	require.NoError(t, err)
	out := d.RuleByID("r1").Output(match)
	require.Len(t, out.Pairs(), 1)

	miss, err := core.ParseAssignment("score=2, mood=fine")
	require.NoError(t, err)
	assert.True(t, d.RuleByID("r1").Output(miss).Void())
}

func TestCompileDomainTemplatedSlots(t *testing.T) {
	d, err := compileString(t, `
		domain: name: "slots"
		rule: r1: {
			kind: "prob"
			cases: [{
				when: [{var: "u_u", value: "buy {item}"}]
				then: [{set: "a_m": "confirm({item})", weight: 0.9}]
			}]
		}
	`)
	require.NoError(t, err)

	input, err := core.ParseAssignment("u_u=buy apples")
	require.NoError(t, err)
	out := d.RuleByID("r1").Output(input)
	require.Len(t, out.Pairs(), 1)
	assert.Equal(t, "a_m:=confirm(apples)", out.Pairs()[0].Effect.String())
}

func TestCompileDomainMissingDomain(t *testing.T) {
	_, err := compileString(t, `rule: r1: {kind: "prob"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileDomainMissingName(t *testing.T) {
	_, err := compileString(t, `domain: {variables: X: ["a"]}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileDomainMissingKind(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			cases: [{then: [{set: Y: "1"}]}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}

func TestCompileDomainUnknownKind(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			kind: "decision"
			cases: [{then: [{set: Y: "1"}]}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule kind")
}

func TestCompileDomainBadOperator(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			kind: "prob"
			cases: [{
				when: [{var: "X", op: "~=", value: "a"}]
				then: [{set: Y: "1"}]
			}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown relation")
}

func TestCompileDomainBadWeightShape(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			kind: "prob"
			cases: [{then: [{set: Y: "1", weight: "lots"}]}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight")
}

func TestCompileDomainBadExpression(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			kind: "prob"
			cases: [{then: [{set: Y: "1", weight: {expr: "theta +", vars: ["theta"]}}]}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight")
}

func TestCompileDomainMissingThen(t *testing.T) {
	_, err := compileString(t, `
		domain: name: "bad"
		rule: r1: {
			kind: "prob"
			cases: [{when: [{var: "X", value: "a"}]}]
		}
	`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "then")
	assert.Contains(t, err.Error(), "required")
}

func TestLoadDomain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mini.cue")
	src := `
domain: {
	name: "mini"
	variables: X: ["a", "b"]
}
rule: r1: {
	kind: "prob"
	cases: [{
		when: [{var: "X", value: "a"}]
		then: [{set: Y: "1", weight: 0.7}]
	}]
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	d, err := LoadDomain(path)
	require.NoError(t, err)
	assert.Equal(t, "mini", d.Name)
	require.Len(t, d.Rules, 1)
}

func TestLoadDomainMissingFile(t *testing.T) {
	_, err := LoadDomain(filepath.Join(t.TempDir(), "nope.cue"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading domain file")
}

func TestLoadDomainSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte(`domain: { name: `), 0o644))

	_, err := LoadDomain(path)
	require.Error(t, err)
}
