// Package observe provides the logging and metrics plumbing consumed by the
// coordinator: a minimal structured JSON logger and an OpenTelemetry-backed
// recorder for call outcomes, retries, circuit trips, and cache lookups.
package observe
