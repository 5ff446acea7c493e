// Package verifier contains the deterministic, per-task-type scoring
// functions that replay an agent's action trace against task heuristics.
// Every verifier is a pure function of (actions, elapsed, budget): no I/O,
// no shared state, and a score always clamped into [0,1000]. Failed actions
// never count, attempt counts are capped per task, and missing input yields
// an invalid zero result rather than an error.
package verifier
