// Package server assembles the notifier process from its settings.
//
// Run opens the configured store, push transport and task queue, serves the
// HTTP trigger ingress and the optional gRPC health endpoint, and runs the
// daily sweep on its cron schedule until the context is canceled. RunSweep
// performs a single sweep for operators and external schedulers.
package server
