package template

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyssym/opendial/internal/core"
)

func TestParseSlots(t *testing.T) {
	testCases := []struct {
		name           string
		raw            string
		slots          []string
		underspecified bool
	}{
		{"no slots", "u_u", nil, false},
		{"single slot", "u_m({speaker})", []string{"speaker"}, true},
		{"two slots", "{a} sees {b}", []string{"a", "b"}, true},
		{"repeated slot counts once", "{x} and {x}", []string{"x"}, true},
		{"qualified slot", "{obj.color}", []string{"obj.color"}, true},
		{"literal braces stay literal", "{ not a slot", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := Parse(tc.raw)
			assert.Equal(t, tc.slots, tmpl.Slots())
			assert.Equal(t, tc.underspecified, tmpl.Underspecified())
			assert.Equal(t, tc.raw, tmpl.Raw())
		})
	}
}

func TestFilledBy(t *testing.T) {
	tmpl := Parse("u_m({speaker})")

	full, err := core.ParseAssignment("speaker=alice")
	require.NoError(t, err)
	partial, err := core.ParseAssignment("listener=bob")
	require.NoError(t, err)
	none := core.Unary("speaker", core.NoneValue{})

	assert.True(t, tmpl.FilledBy(full))
	assert.False(t, tmpl.FilledBy(partial))
	assert.False(t, tmpl.FilledBy(none), "NoneValue does not fill a slot")
	assert.True(t, Parse("u_u").FilledBy(core.Assignment{}), "slot-free template is always filled")
}

func TestFill(t *testing.T) {
	tmpl := Parse("{a} likes {b}")

	a, err := core.ParseAssignment("a=alice, b=bob")
	require.NoError(t, err)
	assert.Equal(t, "alice likes bob", tmpl.Fill(a))

	partial := core.Unary("a", core.StringValue("alice"))
	assert.Equal(t, "alice likes {b}", tmpl.Fill(partial))
}

func TestMatchCapturesSlots(t *testing.T) {
	tmpl := Parse("move to {place}")

	bindings, ok := tmpl.Match("move to kitchen")

	require.True(t, ok)
	v, found := bindings.Get("place")
	require.True(t, found)
	assert.Equal(t, core.StringValue("kitchen"), v)
}

func TestMatchParsesCapturedValues(t *testing.T) {
	tmpl := Parse("score is {n}")

	bindings, ok := tmpl.Match("score is 42")

	require.True(t, ok)
	v, _ := bindings.Get("n")
	assert.Equal(t, core.NumberValue(42), v)
}

func TestMatchExactForSlotFreeTemplates(t *testing.T) {
	tmpl := Parse("u_u")

	_, ok := tmpl.Match("u_u")
	assert.True(t, ok)

	_, ok = tmpl.Match("u_m")
	assert.False(t, ok)
}

func TestMatchRepeatedSlotMustAgree(t *testing.T) {
	tmpl := Parse("{x} equals {x}")

	_, ok := tmpl.Match("a equals a")
	assert.True(t, ok)

	_, ok = tmpl.Match("a equals b")
	assert.False(t, ok)
}

func TestMatchRejectsNonMatching(t *testing.T) {
	tmpl := Parse("move to {place}")

	_, ok := tmpl.Match("stay at home")
	assert.False(t, ok)
}

func TestParseCacheConcurrent(t *testing.T) {
	// Concurrent parses of the same text must all see a usable template.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tmpl := Parse("cached {slot}")
			_, ok := tmpl.Match("cached hit")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
