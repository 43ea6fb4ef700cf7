// Package messaging publishes and consumes domain events over a pluggable
// broker (NATS, NSQ, Kafka, Google Pub/Sub, or in process memory).
//
// Use cases depend on Publisher/Consumer only. Events are JSON bodies with
// string headers; HeaderCorrelationID carries the request correlation ID
// across the broker so consumer logs line up with the originating request.
package messaging
