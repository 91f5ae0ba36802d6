// Package probe is a small gRPC health client used by the healthcheck command
// to verify a running notifier from container orchestrators.
package probe
