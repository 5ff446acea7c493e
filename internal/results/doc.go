// Package results delivers finalized score events to the orchestration
// side. Publishers exist for Redis lists and RabbitMQ queues, plus an
// in-memory variant for development. RetryPublisher adds best-effort
// redelivery with exponential backoff on top of any publisher.
package results
