package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want Value
	}{
		{"none literal", "None", NoneValue{}},
		{"empty text", "", NoneValue{}},
		{"whitespace only", "   ", NoneValue{}},
		{"bool true", "true", BoolValue(true)},
		{"bool mixed case", "True", BoolValue(true)},
		{"bool false", "false", BoolValue(false)},
		{"integer", "2", NumberValue(2)},
		{"float", "0.7", NumberValue(0.7)},
		{"negative float", "-1.5", NumberValue(-1.5)},
		{"plain text", "hello", StringValue("hello")},
		{"text with spaces trimmed", "  ask again  ", StringValue("ask again")},
		{"flat list", "[a, b]", ListValue{StringValue("a"), StringValue("b")}},
		{"mixed list", "[1, x]", ListValue{NumberValue(1), StringValue("x")}},
		{"empty list", "[]", ListValue{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseValue(tc.raw)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValueNormalizesNFC(t *testing.T) {
	// "café" with a combining accent (NFD) must parse to the composed form.
	decomposed := "café"
	composed := "café"

	got := ParseValue(decomposed)

	assert.Equal(t, StringValue(composed), got)
	assert.True(t, Equal(got, StringValue(composed)))
}

func TestValueCanonicalForms(t *testing.T) {
	testCases := []struct {
		name  string
		value Value
		want  string
	}{
		{"none", NoneValue{}, "None"},
		{"string", StringValue("hello"), "hello"},
		{"integral number drops decimals", NumberValue(2), "2"},
		{"fractional number", NumberValue(0.7), "0.7"},
		{"bool", BoolValue(true), "true"},
		{"list", ListValue{StringValue("a"), NumberValue(1)}, "[a, 1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.value.String())
		})
	}
}

func TestParseValueRoundTrip(t *testing.T) {
	// Canonical forms must parse back to equal values.
	for _, raw := range []string{"None", "true", "2", "0.7", "hello", "[a, b]"} {
		v := ParseValue(raw)
		again := ParseValue(v.String())
		assert.True(t, Equal(v, again), "round trip of %q", raw)
	}
}

func TestCompareOrdersKindsThenContent(t *testing.T) {
	// None < bool < number < string < list, numbers numerically.
	ordered := []Value{
		NoneValue{},
		BoolValue(false),
		BoolValue(true),
		NumberValue(2),
		NumberValue(10),
		StringValue("a"),
		StringValue("b"),
		ListValue{StringValue("a")},
	}

	for i := 0; i < len(ordered)-1; i++ {
		assert.Negative(t, Compare(ordered[i], ordered[i+1]),
			"%s should sort before %s", ordered[i], ordered[i+1])
		assert.Positive(t, Compare(ordered[i+1], ordered[i]))
	}
	assert.Zero(t, Compare(NumberValue(2), NumberValue(2)))
}

func TestCompareNumbersNumerically(t *testing.T) {
	// 2 < 10 even though "2" > "10" lexically.
	assert.Negative(t, Compare(NumberValue(2), NumberValue(10)))
}
