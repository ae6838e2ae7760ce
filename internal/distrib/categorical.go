package distrib

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/lyssym/opendial/internal/core"
)

// ErrEmptyDistribution is returned when sampling from a table without
// positive mass.
var ErrEmptyDistribution = errors.New("empty distribution")

// Row is one value with its weight.
type Row struct {
	Value core.Value
	Prob  float64
}

// Categorical is an immutable single-variable categorical table.
//
// Weights are stored exactly as provided: no normalization is performed
// or guaranteed, and a table's total mass may be any positive number (or
// zero for the empty table). Rows are kept in deterministic order (sorted
// by value), so iteration and String are stable.
type Categorical struct {
	variable string
	rows     []Row
	index    map[string]int
	total    float64
}

// Builder accumulates rows for a Categorical. The builder is not safe for
// concurrent use; Build the table before sharing it.
type Builder struct {
	variable string
	rows     map[string]Row
}

// NewBuilder starts a table for the given variable.
func NewBuilder(variable string) *Builder {
	return &Builder{variable: variable, rows: make(map[string]Row)}
}

// AddRow records a weight for value. Adding the same value again replaces
// its weight.
func (b *Builder) AddRow(value core.Value, prob float64) {
	b.rows[value.String()] = Row{Value: value, Prob: prob}
}

// Empty reports whether no rows were added.
func (b *Builder) Empty() bool { return len(b.rows) == 0 }

// Build freezes the accumulated rows into a table with deterministic row
// order.
func (b *Builder) Build() *Categorical {
	c := &Categorical{
		variable: b.variable,
		rows:     make([]Row, 0, len(b.rows)),
		index:    make(map[string]int, len(b.rows)),
	}
	for _, r := range b.rows {
		c.rows = append(c.rows, r)
	}
	sort.Slice(c.rows, func(i, j int) bool {
		return core.Compare(c.rows[i].Value, c.rows[j].Value) < 0
	})
	for i, r := range c.rows {
		c.index[r.Value.String()] = i
		c.total += r.Prob
	}
	return c
}

// Variable returns the owning variable identifier.
func (c *Categorical) Variable() string { return c.variable }

// Prob returns the weight of head, 0 when absent.
func (c *Categorical) Prob(head core.Value) float64 {
	if i, ok := c.index[head.String()]; ok {
		return c.rows[i].Prob
	}
	return 0
}

// Rows returns the rows in deterministic order. Callers must not modify
// the returned slice.
func (c *Categorical) Rows() []Row { return c.rows }

// Values returns the row values in deterministic order.
func (c *Categorical) Values() []core.Value {
	out := make([]core.Value, len(c.rows))
	for i, r := range c.rows {
		out[i] = r.Value
	}
	return out
}

// Size returns the number of rows.
func (c *Categorical) Size() int { return len(c.rows) }

// Empty reports whether the table has no rows.
func (c *Categorical) Empty() bool { return len(c.rows) == 0 }

// Total returns the summed mass of all rows.
func (c *Categorical) Total() float64 { return c.total }

// Best returns the value with the highest weight, breaking ties towards
// the smaller value in row order.
func (c *Categorical) Best() (core.Value, error) {
	if c.Empty() {
		return nil, ErrEmptyDistribution
	}
	best := 0
	for i, r := range c.rows {
		if r.Prob > c.rows[best].Prob {
			best = i
		}
	}
	return c.rows[best].Value, nil
}

// Sample draws one value proportionally to the row weights using the
// given source. Use this form in tests that need reproducible draws.
func (c *Categorical) Sample(rng *rand.Rand) (core.Value, error) {
	return c.sample(rng.Float64)
}

// SampleDefault draws using the process-wide source, which is safe for
// concurrent use.
func (c *Categorical) SampleDefault() (core.Value, error) {
	return c.sample(rand.Float64)
}

func (c *Categorical) sample(randFloat func() float64) (core.Value, error) {
	if c.Empty() || c.total <= 0 {
		return nil, ErrEmptyDistribution
	}
	target := randFloat() * c.total
	cumulative := 0.0
	for _, r := range c.rows {
		if r.Prob <= 0 {
			continue
		}
		cumulative += r.Prob
		if target < cumulative {
			return r.Value, nil
		}
	}
	// Floating-point accumulation can land target exactly on the total;
	// the draw then belongs to the last positive row.
	for i := len(c.rows) - 1; i >= 0; i-- {
		if c.rows[i].Prob > 0 {
			return c.rows[i].Value, nil
		}
	}
	return nil, ErrEmptyDistribution
}

func (c *Categorical) String() string {
	if c.Empty() {
		return fmt.Sprintf("P(%s): empty", c.variable)
	}
	parts := make([]string, len(c.rows))
	for i, r := range c.rows {
		parts[i] = fmt.Sprintf("P(%s=%s)=%s",
			c.variable, r.Value.String(), core.NumberValue(r.Prob).String())
	}
	return strings.Join(parts, ", ")
}
