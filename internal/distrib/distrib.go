// Package distrib provides the distribution contracts of the toolkit's
// probabilistic network, a concrete categorical table with seedable
// sampling, and the marginal view that fixes part of a distribution's
// condition.
package distrib

import (
	"github.com/lyssym/opendial/internal/core"
)

// Distribution is the conditional-probability contract every node
// distribution satisfies, anchored rules included. Implementations must
// be safe for concurrent queries once shared.
type Distribution interface {
	// Variable returns the identifier of the owning variable.
	Variable() string
	// Prob returns the mass of head under the given condition, 0 when the
	// head is absent.
	Prob(condition core.Assignment, head core.Value) float64
	// Table builds the categorical table conditioned on condition.
	Table(condition core.Assignment) *Categorical
	// Sample draws one value conditioned on condition.
	Sample(condition core.Assignment) (core.Value, error)
	// Values returns every value the distribution can produce.
	Values() []core.Value
	// Rename swaps the owning identifier from oldID to newID; identifiers
	// other than oldID stay untouched.
	Rename(oldID, newID string)
	// Prune asks the distribution to drop values below the threshold,
	// reporting whether anything changed.
	Prune(threshold float64) bool
}

// UtilityFunction is the utility contract of the network.
type UtilityFunction interface {
	// Utility returns the scalar utility of a full assignment.
	Utility(fullInput core.Assignment) float64
	Rename(oldID, newID string)
}
