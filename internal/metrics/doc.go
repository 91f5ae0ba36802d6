// Package metrics exposes the Prometheus collectors of the notifier.
package metrics
