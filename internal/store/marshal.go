package store

import (
	"fmt"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

// marshalInput converts an assignment to its canonical TEXT form for
// storage. The canonical form is deterministic (sorted variables), so
// identical inputs always produce identical column values.
func marshalInput(a core.Assignment) string {
	return a.String()
}

// unmarshalInput parses the canonical TEXT form back to an assignment.
func unmarshalInput(data string) (core.Assignment, error) {
	if data == "" {
		return core.Assignment{}, nil
	}
	a, err := core.ParseAssignment(data)
	if err != nil {
		return core.Assignment{}, fmt.Errorf("unmarshal input: %w", err)
	}
	return a, nil
}

// marshalEffect converts an effect to its canonical TEXT form. A nil
// effect is stored as the void effect.
func marshalEffect(e *rules.Effect) string {
	if e == nil {
		return "Void"
	}
	return e.String()
}

// unmarshalEffect parses the canonical TEXT form back to an effect.
func unmarshalEffect(data string) (*rules.Effect, error) {
	e, err := rules.ParseEffect(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal effect: %w", err)
	}
	return e, nil
}
