package core

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Value is a single dialogue-variable value.
//
// The canonical form returned by String is the basis for equality, set
// membership, and cache keys: two values are interchangeable exactly when
// their canonical forms are equal. The interface is open: rule effects
// implement Value from their own package so that a rule's output
// distribution can range over effects directly.
type Value interface {
	// String returns the canonical text form of the value.
	String() string
}

// NoneValue is the absence of a value. Unbound variables and empty slots
// resolve to NoneValue, never to a missing map entry surfacing as an error.
type NoneValue struct{}

func (NoneValue) String() string { return "None" }

// StringValue is free-text content. Construct through ParseValue so the
// content is NFC-normalized; direct conversions skip normalization.
type StringValue string

func (s StringValue) String() string { return string(s) }

// NumberValue is a numeric value. The canonical form is the shortest
// representation that round-trips, so integral numbers print without a
// decimal point ("2", not "2.0").
type NumberValue float64

func (n NumberValue) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// Float returns the underlying float64.
func (n NumberValue) Float() float64 { return float64(n) }

// BoolValue is a boolean value.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}

// ListValue is an ordered collection of values, canonical form "[a, b]".
type ListValue []Value

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseValue maps raw text to its typed value:
//
//   - ""            → NoneValue
//   - "None"        → NoneValue
//   - "true"/"false" (any case) → BoolValue
//   - numeric text  → NumberValue
//   - "[a, b]"      → ListValue over the parsed elements (flat lists only)
//   - anything else → StringValue, NFC-normalized
//
// This is the single normalization gateway: values entering the system as
// text (compiled domains, CLI flags, scenario files) pass through here.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	switch {
	case s == "" || s == "None":
		return NoneValue{}
	case strings.EqualFold(s, "true"):
		return BoolValue(true)
	case strings.EqualFold(s, "false"):
		return BoolValue(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(f)
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return ListValue{}
		}
		parts := strings.Split(inner, ",")
		list := make(ListValue, 0, len(parts))
		for _, p := range parts {
			list = append(list, ParseValue(p))
		}
		return list
	}
	return StringValue(norm.NFC.String(s))
}

// Equal reports whether two values share the same canonical form.
func Equal(a, b Value) bool {
	return a.String() == b.String()
}

// kindRank orders value kinds for cross-kind comparison. Foreign
// implementations (effects) sort after all built-in kinds.
func kindRank(v Value) int {
	switch v.(type) {
	case NoneValue:
		return 0
	case BoolValue:
		return 1
	case NumberValue:
		return 2
	case StringValue:
		return 3
	case ListValue:
		return 4
	default:
		return 5
	}
}

// Compare orders two values deterministically: by kind first, then numbers
// numerically, lists elementwise, and everything else by canonical form.
// The result is negative, zero, or positive in the usual cmp convention.
func Compare(a, b Value) int {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case NumberValue:
		bv := b.(NumberValue)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case BoolValue:
		bv := b.(BoolValue)
		switch {
		case !bool(av) && bool(bv):
			return -1
		case bool(av) && !bool(bv):
			return 1
		}
		return 0
	case ListValue:
		bv := b.(ListValue)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	default:
		return strings.Compare(a.String(), b.String())
	}
}
