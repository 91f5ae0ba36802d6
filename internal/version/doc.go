// Package version exposes build metadata for the notifier.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// Short and Full render them for the CLI, the startup log line and the
// gRPC health service name.
package version
