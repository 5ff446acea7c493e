// Package judge grades tasks that have no checkable ground truth (design,
// writing, pitch decks) by prompting LLM judges against a fixed rubric.
// Judges are routed across model families to dampen self-preference bias;
// panel mode fans out to three families concurrently and aggregates the
// surviving scores by median. Every failure path collapses to a documented
// neutral verdict — callers always receive a score, never an error.
package judge
