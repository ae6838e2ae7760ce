// Package testutil provides deterministic helpers shared by tests:
// seeded random sources, panic-on-error fixture parsers, and a static
// stand-in for the dialogue state snapshot rules anchor against.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

// Rand returns a seeded random source for reproducible draws. Tests
// use private sources, never the global one.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// MustAssignment parses an assignment, panicking on malformed text.
// For fixtures whose text is known good.
func MustAssignment(s string) core.Assignment {
	a, err := core.ParseAssignment(s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad assignment %q: %v", s, err))
	}
	return a
}

// MustEffect parses an effect, panicking on malformed text.
func MustEffect(s string) *rules.Effect {
	e, err := rules.ParseEffect(s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad effect %q: %v", s, err))
	}
	return e
}

// Values parses raw texts into typed values, in order. Numeric text
// becomes numbers, booleans become booleans, everything else strings.
func Values(raw ...string) []core.Value {
	out := make([]core.Value, len(raw))
	for i, r := range raw {
		out[i] = core.ParseValue(r)
	}
	return out
}

// StaticContext serves fixed value domains, standing in for a dialogue
// state snapshot when anchoring rules in tests.
type StaticContext map[string][]core.Value

// HasVariable reports whether the context knows the variable.
func (c StaticContext) HasVariable(id string) bool {
	_, ok := c[id]
	return ok
}

// ValueDomain returns the fixed domain of a variable, nil for unknown
// variables.
func (c StaticContext) ValueDomain(id string) []core.Value { return c[id] }
