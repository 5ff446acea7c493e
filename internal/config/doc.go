// Package config provides centralized configuration management for the
// scoring engine, covering the API server, puzzle storage backends, judge
// model transport, result queues, and logging/audit outputs. Values come
// from a JSON file with sensible defaults applied for anything omitted.
package config
