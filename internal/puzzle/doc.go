// Package puzzle implements the puzzle mini-game backend: server-side
// generation and persistence of puzzles, anonymous and authenticated
// answer grading, session submission with cross-validation against
// server-recorded attempts, and an atomically updated leaderboard.
//
// Puzzles are generated with their solutions and persisted before they
// are ever handed to a client; the client-facing projection strips the
// correct answer and explanation. Anonymous grading is capped per
// puzzle by an in-process counter. Session cross-validation is
// fail-open: when server-side attempt records are missing the
// client-reported result is trusted, with an audit trail for
// suspiciously inflated scores.
package puzzle
