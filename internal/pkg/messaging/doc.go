// Package messaging publishes and consumes events without tying callers to a
// broker.
//
// Drivers: "memory" delivers inside the process and suits single-instance
// deployments and tests, "nats" uses NATS core subjects with queue groups, and
// "kafka" uses kafka-go consumer groups.
package messaging
