package anchor

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lyssym/opendial/internal/rules"
)

// outputCache memoizes rule outputs keyed by the canonical form of the
// trimmed-and-merged input assignment.
//
// Reads of stored keys are lock-free (sync.Map fast path). First
// computation of a key goes through singleflight, collapsing concurrent
// misses for the same key into one evaluation. The evaluator is pure, so
// an occasional duplicate computation would be harmless; collapsing is an
// optimization, not a correctness requirement.
type outputCache struct {
	entries sync.Map // canonical assignment form -> *rules.Output
	group   singleflight.Group
}

func newOutputCache() *outputCache {
	return &outputCache{}
}

// fetchOrCompute returns the output stored under key, computing and
// storing it on first use. Every caller of the same key observes the same
// stored value.
func (c *outputCache) fetchOrCompute(key string, compute func() *rules.Output) *rules.Output {
	if v, ok := c.entries.Load(key); ok {
		return v.(*rules.Output)
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		// A previous flight may have stored the key already.
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}
		out := compute()
		c.entries.Store(key, out)
		return out, nil
	})
	return v.(*rules.Output)
}

// size counts the stored keys.
func (c *outputCache) size() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
