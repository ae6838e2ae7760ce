// Package store provides SQLite-backed durable storage for recorded
// sampling sessions.
//
// The store implements an append-only log with:
//   - Sessions: one row per recorded sampling run
//   - Turns: one row per sampled rule effect within a session
//
// All ordering uses seq INTEGER (logical clock), never wall-clock
// timestamps, so reads are deterministic across replays. Every query
// that returns multiple rows orders by seq ASC, id COLLATE BINARY ASC.
//
// Turn identifiers are content-addressed (core.TurnID over the session
// token, sequence, rule id, and canonical input/effect forms), which
// makes writes idempotent: re-recording the same turn is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
