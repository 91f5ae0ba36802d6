// Package dispatcher turns calendar change events into push notifications.
//
// Every handler is best-effort: lookup misses and disabled preferences are
// skipped, delivery and scheduling failures are logged, and nothing is returned
// to the trigger that could make the upstream retry the write. Handlers read all
// entities fresh and keep no state between invocations, so concurrent calls are safe.
package dispatcher
