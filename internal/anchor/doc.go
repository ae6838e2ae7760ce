// Package anchor binds an abstract conditional rule to a concrete
// dialogue-state snapshot, producing a queryable distribution or utility
// function.
//
// Anchoring happens once, single-threaded: the input domain is resolved
// from the rule's templated variables and the snapshot, every full input
// assignment is enumerated by Cartesian linearisation, and the reachable
// effects, output domain, and parameter dependencies are collected. The
// enumeration is exponential in the number of distinct input variables;
// upstream callers keep input-domain cardinality bounded.
//
// After construction the anchored rule is immutable except for its output
// cache and may be queried from any number of goroutines. The cache is a
// lock-free fetch-or-compute map; the rule evaluator is a pure function of
// its input, so memoization only needs one agreed value per key, not
// strict exactly-once computation.
package anchor
