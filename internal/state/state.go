// Package state holds the dialogue-state snapshot that rules anchor
// against: the chance nodes with their value domains, plus the evidence
// observed so far.
package state

import (
	"strings"

	"github.com/lyssym/opendial/internal/core"
)

// State is one snapshot of the dialogue state.
//
// Construction and mutation are single-threaded; share a snapshot only
// once it is fully built. Anchored rules bind to the snapshot they were
// constructed with; changing the state afterwards requires anchoring
// again, never mutates existing anchors.
type State struct {
	domains  core.ValueRange
	evidence core.Assignment
}

// New returns an empty state.
func New() *State {
	return &State{domains: core.NewValueRange()}
}

// AddNode registers a chance node and extends its value domain. Adding an
// existing node grows its domain rather than replacing it.
func (s *State) AddNode(id string, values ...core.Value) {
	s.domains.AddValues(id, values...)
}

// SetDomain replaces the value domain of a node.
func (s *State) SetDomain(id string, values []core.Value) {
	delete(s.domains, id)
	s.domains.AddValues(id, values...)
}

// HasVariable reports whether the state knows a chance node by this name.
func (s *State) HasVariable(id string) bool {
	return s.domains.Has(id)
}

// ValueDomain returns the admissible values of a node in deterministic
// order, or nil for unknown nodes.
func (s *State) ValueDomain(id string) []core.Value {
	return s.domains.ValuesOf(id)
}

// Variables returns the known node names, sorted.
func (s *State) Variables() []string {
	return s.domains.Variables()
}

// AddEvidence fixes observed values. Evidence values join their node's
// domain, so observing a value the domain never listed stays consistent.
func (s *State) AddEvidence(a core.Assignment) {
	s.evidence = s.evidence.Merge(a)
	s.domains.AddAssignment(a)
}

// Evidence returns the observed values.
func (s *State) Evidence() core.Assignment {
	return s.evidence
}

// Copy returns an independent snapshot.
func (s *State) Copy() *State {
	return &State{
		domains:  s.domains.Copy(),
		evidence: s.evidence,
	}
}

func (s *State) String() string {
	var b strings.Builder
	b.WriteString("state")
	b.WriteString(s.domains.String())
	if s.evidence.Size() > 0 {
		b.WriteString(" evidence[")
		b.WriteString(s.evidence.String())
		b.WriteString("]")
	}
	return b.String()
}
