// Package api exposes the REST surface of the scoring engine: action
// trace verification, LLM judging, puzzle grading, session submission
// and leaderboard reads. Finalized scores are additionally published
// as result events for the orchestration side.
package api
