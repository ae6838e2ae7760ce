package distrib

import (
	"github.com/lyssym/opendial/internal/core"
)

// Marginal is a distribution with part of its condition fixed, as handed
// out by posterior queries. The fixed condition wins over query-time
// conditions on overlapping variables.
type Marginal struct {
	inner     Distribution
	condition core.Assignment
}

// NewMarginal fixes condition onto inner.
func NewMarginal(inner Distribution, condition core.Assignment) *Marginal {
	return &Marginal{inner: inner, condition: condition}
}

// Condition returns the fixed part of the condition.
func (m *Marginal) Condition() core.Assignment { return m.condition }

func (m *Marginal) Variable() string { return m.inner.Variable() }

func (m *Marginal) Prob(condition core.Assignment, head core.Value) float64 {
	return m.inner.Prob(condition.Merge(m.condition), head)
}

func (m *Marginal) Table(condition core.Assignment) *Categorical {
	return m.inner.Table(condition.Merge(m.condition))
}

func (m *Marginal) Sample(condition core.Assignment) (core.Value, error) {
	return m.inner.Sample(condition.Merge(m.condition))
}

func (m *Marginal) Values() []core.Value { return m.inner.Values() }

// Rename forwards to the wrapped distribution and keeps the fixed
// condition aligned with the new identifier.
func (m *Marginal) Rename(oldID, newID string) {
	m.inner.Rename(oldID, newID)
	if m.condition.Has(oldID) {
		renamed := make(map[string]core.Value, m.condition.Size())
		for _, k := range m.condition.Variables() {
			val, _ := m.condition.Get(k)
			if k == oldID {
				renamed[newID] = val
			} else {
				renamed[k] = val
			}
		}
		m.condition = core.NewAssignment(renamed)
	}
}

func (m *Marginal) Prune(threshold float64) bool {
	return m.inner.Prune(threshold)
}

func (m *Marginal) String() string {
	s := m.inner.Variable()
	if m.condition.Size() > 0 {
		s += " given " + m.condition.String()
	}
	return "marginal of " + s
}
