// Package core provides the foundational value, assignment, and value-range
// types for the opendial toolkit.
//
// All other internal packages import core; core imports nothing internal.
// This keeps the value model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Identity is the canonical string form: two values (or assignments) are
//     interchangeable exactly when their canonical forms are equal
//   - String content is NFC-normalized at the parse boundary
//   - Enumeration order is always deterministic (sorted variables, sorted
//     values), never map iteration order
package core
