// Package rules implements the probabilistic rule model: conditions over
// dialogue variables, templated effects, weight parameters, and the rule
// evaluator that maps one full input assignment to a rule output.
//
// Evaluation is deterministic and pure. A rule walks its cases in
// declaration order; the first case whose condition is satisfied produces
// the output, with effect slots grounded from the input plus any slot
// bindings the condition captured. No case matching yields the void output,
// never an error.
package rules
